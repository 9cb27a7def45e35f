package terminate

// Outcome is the terminal state of one target.
type Outcome int

const (
	Failed Outcome = iota
	DryRun
	Stopped
	Killed
	Exited
)

func (o Outcome) String() string {
	switch o {
	case DryRun:
		return "DRYRUN"
	case Stopped:
		return "STOPPED"
	case Killed:
		return "KILLED"
	case Exited:
		return "EXITED"
	default:
		return "FAILED"
	}
}
