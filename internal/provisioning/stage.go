package provisioning

// Stage is a state of the bootstrap pipeline.
//
//	Idle -> Provisioning -> Bridging -> Registering -> Ready
//
// Any stage may move to Failed, which is terminal.
type Stage string

const (
	StageIdle         Stage = "idle"
	StageProvisioning Stage = "provisioning"
	StageBridging     Stage = "bridging"
	StageRegistering  Stage = "registering"
	StageReady        Stage = "ready"
	StageFailed       Stage = "failed"
)

var stageOrder = map[Stage]int{
	StageIdle:         0,
	StageProvisioning: 1,
	StageBridging:     2,
	StageRegistering:  3,
	StageReady:        4,
}

// CanAdvance reports whether the pipeline may move from s to next.
func (s Stage) CanAdvance(next Stage) bool {
	if s == StageFailed || s == StageReady {
		return false
	}
	if next == StageFailed {
		return true
	}
	from, ok := stageOrder[s]
	if !ok {
		return false
	}
	to, ok := stageOrder[next]
	return ok && to == from+1
}
