package video

// Descriptor names one of the temporal (video-level) detectors, mirroring detect.DetectorDescriptor for the
// image-level detectors so listVideoDetectors() is as citable and callable
// as detect.Registry.List().
type Descriptor struct {
	Name        string
	DisplayName string
	IssueType   string
}

var (
	freezeDescriptor      = Descriptor{Name: "freeze", DisplayName: "Freeze", IssueType: "freeze"}
	sceneChangeDescriptor = Descriptor{Name: "scene_change", DisplayName: "Scene change", IssueType: "scene_change"}
	shakeDescriptor       = Descriptor{Name: "shake", DisplayName: "Shake", IssueType: "shake"}
)

// ListVideoDetectors returns the three temporal detectors' descriptors,
// ordered by name. Unlike detect.Registry, the set is fixed: every video
// diagnosis runs all three against the sampled stream, so there is no
// per-call active subset to filter.
func ListVideoDetectors() []Descriptor {
	return []Descriptor{freezeDescriptor, sceneChangeDescriptor, shakeDescriptor}
}
