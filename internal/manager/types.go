package manager

// State represents the lifecycle state of the active model slot.
type State string

const (
	StateUnloaded State = "unloaded"
	StateLoading  State = "loading"
	StateLoaded   State = "loaded"
)

// ModelState is a read-only snapshot of the active model slot.
type ModelState struct {
	State  State
	Name   string
	Path   string
	Vision bool
	// LastError holds the most recent load failure, if any.
	LastError string
}
