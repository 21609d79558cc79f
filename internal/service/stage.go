package service

// Stage is the position of a search in its pipeline.
type Stage int

const (
	StageIdle Stage = iota
	StageValidating
	StageBuildingRequest
	StageResolving
	StageMaterializing
	StageEnriching
	StageDone
	StageFailed
)

var stageNames = [...]string{
	StageIdle:            "idle",
	StageValidating:      "validating",
	StageBuildingRequest: "building_request",
	StageResolving:       "resolving",
	StageMaterializing:   "materializing",
	StageEnriching:       "enriching",
	StageDone:            "done",
	StageFailed:          "failed",
}

func (s Stage) String() string {
	if s < 0 || int(s) >= len(stageNames) {
		return "unknown"
	}
	return stageNames[s]
}
