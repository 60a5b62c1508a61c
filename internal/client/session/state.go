package session

// State is the lifecycle phase of a session. Exactly one is active.
type State int

const (
	Uninitialized State = iota
	AwaitingPasscode
	Loading
	Ready
	// FetchFailed is entered when reading settings fails; Retry leaves it.
	FetchFailed
	LoggedOut
)

func (s State) String() string {
	switch s {
	case Uninitialized:
		return "uninitialized"
	case AwaitingPasscode:
		return "awaiting-passcode"
	case Loading:
		return "loading"
	case Ready:
		return "ready"
	case FetchFailed:
		return "fetch-failed"
	case LoggedOut:
		return "logged-out"
	default:
		return "unknown"
	}
}

// NoticeKind classifies operator notifications.
type NoticeKind int

const (
	UpdateSucceeded NoticeKind = iota
	UpdateFailed
	ValidationFailed
)

// Notice is a single operator-visible notification.
type Notice struct {
	Kind    NoticeKind
	Message string
	Details []string
}

const (
	msgUpdateSucceeded  = "Successfully updated settings"
	msgUpdateFailed     = "Failed to update settings..."
	msgValidationFailed = "Settings do not match the schema"
)

// Notifier shows notices to the operator.
type Notifier interface {
	Notify(Notice)
}

// NotifierFunc adapts a function to Notifier.
type NotifierFunc func(Notice)

func (f NotifierFunc) Notify(n Notice) {
	f(n)
}
