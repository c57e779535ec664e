// Package pose defines the pose-estimation capability the motion stage
// depends on. Estimation itself is an external concern; this package holds
// the landmark model, the Estimator interface, and a subprocess-backed
// implementation.
package pose

import (
	"context"
	"fmt"
)

// Landmark is one body joint in normalized image coordinates: x and y in
// [0,1] with y growing downward, z model-relative depth, visibility in [0,1].
type Landmark struct {
	X          float64 `json:"x"`
	Y          float64 `json:"y"`
	Z          float64 `json:"z"`
	Visibility float64 `json:"visibility"`
}

// Point is a hand landmark without a visibility score.
type Point struct {
	X float64 `json:"x"`
	Y float64 `json:"y"`
	Z float64 `json:"z"`
}

// Result is one frame's landmark set. Body keys come from the canonical
// 33-joint table; hand keys are "point_0" … "point_20".
type Result struct {
	Body              map[string]Landmark `json:"body,omitempty"`
	FacePresent       bool                `json:"face_present"`
	FaceLandmarkCount int                 `json:"face_landmark_count,omitempty"`
	LeftHand          map[string]Point    `json:"left_hand,omitempty"`
	RightHand         map[string]Point    `json:"right_hand,omitempty"`
}

// Estimator produces a landmark set for one frame image, or nil when no
// person is detected. Implementations decode the image and feed the model
// RGB pixels; an error means the frame could not be evaluated at all.
type Estimator interface {
	EstimatePose(ctx context.Context, imagePath string) (*Result, error)
}

// landmarkNames is the canonical 33-point body model, indexed as the
// estimator emits them.
var landmarkNames = [...]string{
	"nose", "left_eye_inner", "left_eye", "left_eye_outer",
	"right_eye_inner", "right_eye", "right_eye_outer",
	"left_ear", "right_ear", "mouth_left", "mouth_right",
	"left_shoulder", "right_shoulder", "left_elbow",
	"right_elbow", "left_wrist", "right_wrist",
	"left_pinky", "right_pinky", "left_index",
	"right_index", "left_thumb", "right_thumb",
	"left_hip", "right_hip", "left_knee",
	"right_knee", "left_ankle", "right_ankle",
	"left_heel", "right_heel", "left_foot_index",
	"right_foot_index",
}

// NumBodyLandmarks is the size of the body model.
const NumBodyLandmarks = len(landmarkNames)

// LandmarkName maps an estimator index to its joint name. Indices outside
// the model fall back to "point_<idx>".
func LandmarkName(idx int) string {
	if idx >= 0 && idx < len(landmarkNames) {
		return landmarkNames[idx]
	}
	return fmt.Sprintf("point_%d", idx)
}

// BodyJointNames returns the canonical joint names in model order.
func BodyJointNames() []string {
	names := make([]string, len(landmarkNames))
	copy(names, landmarkNames[:])
	return names
}
