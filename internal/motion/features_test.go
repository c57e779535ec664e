package motion

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/COMMENTERTHE9/Mnemo/internal/pose"
)

func poseAt(joints map[string][3]float64) *pose.Result {
	body := make(map[string]pose.Landmark, len(joints))
	for name, p := range joints {
		body[name] = pose.Landmark{X: p[0], Y: p[1], Z: p[2], Visibility: 1}
	}
	return &pose.Result{Body: body}
}

func TestDiff_NilPosesMeanNoMotion(t *testing.T) {
	p := poseAt(map[string][3]float64{"nose": {0.5, 0.5, 0}})

	for _, tt := range []struct {
		name              string
		current, previous *pose.Result
	}{
		{"both nil", nil, nil},
		{"current nil", nil, p},
		{"previous nil", p, nil},
	} {
		t.Run(tt.name, func(t *testing.T) {
			f := Diff(tt.current, tt.previous)
			assert.False(t, f.MotionDetected)
			assert.Empty(t, f.JointVelocities)
			assert.Zero(t, f.TotalMovement)
		})
	}
}

func TestDiff_EuclideanVelocities(t *testing.T) {
	prev := poseAt(map[string][3]float64{
		"nose":       {0.5, 0.5, 0},
		"left_ankle": {0.4, 0.9, 0},
	})
	curr := poseAt(map[string][3]float64{
		"nose":       {0.5, 0.5, 0},   // still
		"left_ankle": {0.43, 0.86, 0}, // moved 0.05
	})

	f := Diff(curr, prev)
	require.True(t, f.MotionDetected)
	assert.InDelta(t, 0.0, f.JointVelocities["nose"], 1e-9)
	assert.InDelta(t, 0.05, f.JointVelocities["left_ankle"], 1e-9)
	assert.InDelta(t, 0.05, f.TotalMovement, 1e-9)
}

func TestDiff_SkipsJointsMissingFromPrevious(t *testing.T) {
	prev := poseAt(map[string][3]float64{"nose": {0.5, 0.5, 0}})
	curr := poseAt(map[string][3]float64{
		"nose":        {0.5, 0.5, 0},
		"right_wrist": {0.2, 0.2, 0},
	})

	f := Diff(curr, prev)
	_, ok := f.JointVelocities["right_wrist"]
	assert.False(t, ok)
}

func TestDetectActions_ArmRaised(t *testing.T) {
	// Image y grows downward: a raised wrist has smaller y than the shoulder.
	curr := poseAt(map[string][3]float64{
		"left_wrist":     {0.4, 0.2, 0},
		"left_shoulder":  {0.4, 0.4, 0},
		"right_wrist":    {0.6, 0.5, 0},
		"right_shoulder": {0.6, 0.4, 0},
	})
	prev := poseAt(map[string][3]float64{
		"left_wrist":     {0.4, 0.2, 0},
		"left_shoulder":  {0.4, 0.4, 0},
		"right_wrist":    {0.6, 0.5, 0},
		"right_shoulder": {0.6, 0.4, 0},
	})

	f := Diff(curr, prev)
	assert.Equal(t, []string{ActionLeftArmRaised}, f.ActionHints)
}

func TestDetectActions_JumpAndWalk(t *testing.T) {
	prev := poseAt(map[string][3]float64{
		"left_ankle":  {0.4, 0.9, 0},
		"right_ankle": {0.6, 0.9, 0},
		"left_knee":   {0.4, 0.7, 0},
		"right_knee":  {0.6, 0.7, 0},
	})
	curr := poseAt(map[string][3]float64{
		"left_ankle":  {0.4, 0.78, 0}, // 0.12 > jump threshold
		"right_ankle": {0.6, 0.9, 0},
		"left_knee":   {0.4, 0.64, 0}, // 0.06 > walk threshold
		"right_knee":  {0.6, 0.64, 0},
	})

	f := Diff(curr, prev)
	assert.Contains(t, f.ActionHints, ActionPossibleJump)
	assert.Contains(t, f.ActionHints, ActionWalkingRunning)
}

func TestDetectActions_ThresholdsAreStrict(t *testing.T) {
	prev := poseAt(map[string][3]float64{
		"left_ankle": {0.4, 0.9, 0},
		"left_knee":  {0.4, 0.7, 0},
		"right_knee": {0.6, 0.7, 0},
	})
	curr := poseAt(map[string][3]float64{
		"left_ankle": {0.4, 0.8, 0},  // exactly 0.1
		"left_knee":  {0.4, 0.65, 0}, // exactly 0.05
		"right_knee": {0.6, 0.65, 0},
	})

	f := Diff(curr, prev)
	assert.Empty(t, f.ActionHints)
}

func TestAnalyzer_FirstFrameReportsNoMotion(t *testing.T) {
	a := NewAnalyzer()

	feats := a.Observe(poseAt(map[string][3]float64{"nose": {0.5, 0.5, 0}}))
	require.NotNil(t, feats)
	assert.False(t, feats.MotionDetected)
	assert.Zero(t, feats.TotalMovement)

	feats = a.Observe(poseAt(map[string][3]float64{"nose": {0.6, 0.5, 0}}))
	require.NotNil(t, feats)
	assert.True(t, feats.MotionDetected)
	assert.InDelta(t, 0.1, feats.TotalMovement, 1e-9)
}

func TestAnalyzer_FirstNilFrameStillCounts(t *testing.T) {
	a := NewAnalyzer()

	first := a.Observe(nil)
	require.NotNil(t, first)
	assert.False(t, first.MotionDetected)

	feats := a.Observe(poseAt(map[string][3]float64{"nose": {0.5, 0.5, 0}}))
	require.NotNil(t, feats)
	assert.False(t, feats.MotionDetected)
}

func TestFrameImportance(t *testing.T) {
	tests := []struct {
		name string
		f    *Features
		want float64
	}{
		{"nil features", nil, 0.3},
		{"no motion", &Features{}, 0.3},
		{"below threshold", &Features{MotionDetected: true, TotalMovement: 0.1}, 0.3},
		{"above threshold", &Features{MotionDetected: true, TotalMovement: 0.2}, 0.5},
		{"capped", &Features{MotionDetected: true, TotalMovement: 2.5}, 0.9},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.InDelta(t, tt.want, FrameImportance(tt.f), 1e-9)
		})
	}
}

func TestFrameSummary(t *testing.T) {
	p := poseAt(map[string][3]float64{"nose": {0.5, 0.5, 0}})

	assert.Equal(t, "No person detected", FrameSummary(nil, nil))
	assert.Equal(t, "Person detected", FrameSummary(p, nil))
	assert.Equal(t, "Person detected", FrameSummary(p, &Features{MotionDetected: true}))
	assert.Equal(t, "Action: possible_jump, walking_or_running",
		FrameSummary(p, &Features{ActionHints: []string{ActionPossibleJump, ActionWalkingRunning}}))
}
