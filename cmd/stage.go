package cmd

import (
	"tlog.app/go/errors"
)

// Stage is a stage of compilation.
type Stage int

// Enumeration of compilation stages in the order they run.
const (
	StageInit Stage = iota
	StageLoadFiles
	StageParse
	StageGenerate
	StageEmit
	StageLink
	StageDone
)

var stageNames = [...]string{
	StageInit:      "Init",
	StageLoadFiles: "Loading",
	StageParse:     "Parsing",
	StageGenerate:  "Generating",
	StageEmit:      "Emitting",
	StageLink:      "Linking",
	StageDone:      "Done",
}

func (s Stage) String() string {
	if s < 0 || int(s) >= len(stageNames) {
		return "Stage(?)"
	}

	return stageNames[s]
}

// stageTransitions lists the stages which may follow each stage.  Every stage
// may also be abandoned for StageDone when it fails.
var stageTransitions = map[Stage][]Stage{
	StageInit:      {StageLoadFiles},
	StageLoadFiles: {StageParse},
	StageParse:     {StageGenerate},
	StageGenerate:  {StageEmit},
	StageEmit:      {StageLink},
}

// stageMachine tracks the stage a compilation is in.
type stageMachine struct {
	stage Stage
}

// advance moves the machine to the next stage.  Moving to a stage that cannot
// follow the current one is an error.
func (sm *stageMachine) advance(next Stage) error {
	if sm.stage == StageDone {
		return errors.New("compilation already finished, cannot enter %v", next)
	}

	if next == StageDone {
		sm.stage = next
		return nil
	}

	for _, allowed := range stageTransitions[sm.stage] {
		if allowed == next {
			sm.stage = next
			return nil
		}
	}

	return errors.New("invalid stage transition: %v -> %v", sm.stage, next)
}

// current returns the current stage.
func (sm *stageMachine) current() Stage {
	return sm.stage
}
