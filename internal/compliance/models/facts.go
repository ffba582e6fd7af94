package models

// Consumer fact names that affect compliance.
const (
	FactSockets        = "cpu.cpu_socket(s)"
	FactCoresPerSocket = "cpu.core(s)_per_socket"
	FactMemTotal       = "memory.memtotal"
	FactArch           = "uname.machine"
	FactIsGuest        = "virt.is_guest"
)

// RelevantFacts lists the facts folded into status hashes and rule contexts.
// Any other fact may change without affecting compliance.
var RelevantFacts = []string{
	FactSockets,
	FactCoresPerSocket,
	FactMemTotal,
	FactArch,
	FactIsGuest,
}
