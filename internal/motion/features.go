// Package motion derives inter-frame kinematics from pose landmark sets:
// per-joint velocities, heuristic action tagging, and continuous-motion
// segmentation over a full frame sequence.
package motion

import (
	"math"
	"strings"

	"github.com/COMMENTERTHE9/Mnemo/internal/pose"
)

// Thresholds for the action heuristics and segmentation, in normalized
// image-coordinate units per sampled frame. All comparisons are strict.
const (
	ankleJumpThreshold  = 0.1
	kneeWalkThreshold   = 0.05
	segmentThreshold    = 0.02
	importanceThreshold = 0.1
)

// Action hint labels.
const (
	ActionLeftArmRaised  = "left_arm_raised"
	ActionRightArmRaised = "right_arm_raised"
	ActionPossibleJump   = "possible_jump"
	ActionWalkingRunning = "walking_or_running"
)

// Features describes the movement between one frame and its predecessor.
// When MotionDetected is false (either frame had no pose) the remaining
// fields are empty.
type Features struct {
	MotionDetected  bool               `json:"motion_detected"`
	JointVelocities map[string]float64 `json:"joint_velocities,omitempty"`
	TotalMovement   float64            `json:"total_movement,omitempty"`
	ActionHints     []string           `json:"action_hints,omitempty"`
}

// FrameFeatures is the feature blob stored with each motion-type report.
type FrameFeatures struct {
	HasPose        bool         `json:"has_pose"`
	PoseData       *pose.Result `json:"pose_data"`
	MotionFeatures *Features    `json:"motion_features"`
}

// Analyzer holds the rolling one-frame pose history.
type Analyzer struct {
	previous *pose.Result
	observed bool
}

func NewAnalyzer() *Analyzer {
	return &Analyzer{}
}

// Observe feeds the next frame's pose (nil when no person was detected)
// and returns the motion relative to the previous frame. The very first
// frame has no predecessor and reports no motion.
func (a *Analyzer) Observe(current *pose.Result) *Features {
	defer func() {
		a.previous = current
		a.observed = true
	}()

	if !a.observed {
		return &Features{MotionDetected: false}
	}
	f := Diff(current, a.previous)
	return &f
}

// Diff computes motion features between two consecutive poses. Either side
// being nil yields a no-motion result.
func Diff(current, previous *pose.Result) Features {
	if current == nil || previous == nil {
		return Features{MotionDetected: false}
	}

	f := Features{
		MotionDetected:  true,
		JointVelocities: make(map[string]float64, len(current.Body)),
	}

	for name, curr := range current.Body {
		prev, ok := previous.Body[name]
		if !ok {
			continue
		}
		d := math.Sqrt(
			(curr.X-prev.X)*(curr.X-prev.X) +
				(curr.Y-prev.Y)*(curr.Y-prev.Y) +
				(curr.Z-prev.Z)*(curr.Z-prev.Z))
		f.JointVelocities[name] = d
		f.TotalMovement += d
	}

	f.ActionHints = detectActions(current, f.JointVelocities)
	return f
}

// detectActions derives heuristic action tags from the current pose and the
// per-joint velocities. Image y grows downward, so "raised" is y strictly
// below the shoulder's.
func detectActions(p *pose.Result, velocities map[string]float64) []string {
	var actions []string

	if wrist, ok := p.Body["left_wrist"]; ok {
		if shoulder, ok := p.Body["left_shoulder"]; ok && wrist.Y < shoulder.Y {
			actions = append(actions, ActionLeftArmRaised)
		}
	}
	if wrist, ok := p.Body["right_wrist"]; ok {
		if shoulder, ok := p.Body["right_shoulder"]; ok && wrist.Y < shoulder.Y {
			actions = append(actions, ActionRightArmRaised)
		}
	}

	if velocities["left_ankle"] > ankleJumpThreshold || velocities["right_ankle"] > ankleJumpThreshold {
		actions = append(actions, ActionPossibleJump)
	}
	if velocities["left_knee"] > kneeWalkThreshold && velocities["right_knee"] > kneeWalkThreshold {
		actions = append(actions, ActionWalkingRunning)
	}

	return actions
}

// FrameImportance scores a frame's motion report. Baseline 0.3; frames with
// substantial movement scale with it, capped at 0.9.
func FrameImportance(f *Features) float64 {
	if f != nil && f.TotalMovement > importanceThreshold {
		return math.Min(0.9, 0.3+f.TotalMovement)
	}
	return 0.3
}

// FrameSummary renders the per-frame report summary.
func FrameSummary(p *pose.Result, f *Features) string {
	if p == nil {
		return "No person detected"
	}
	if f != nil && len(f.ActionHints) > 0 {
		return "Action: " + strings.Join(f.ActionHints, ", ")
	}
	return "Person detected"
}
