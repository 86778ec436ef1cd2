package detect

// NewDefaultRegistry returns a registry with all eight image detectors
// registered. Construction order does not matter — List() sorts by
// priority then name — but it is kept stable here for readability.
func NewDefaultRegistry() *Registry {
	r := NewRegistry()
	r.Register(SignalLossDescriptor, NewSignalLossDetector)
	r.Register(OcclusionDescriptor, NewOcclusionDetector)
	r.Register(BlurDescriptor, NewBlurDetector)
	r.Register(BrightnessDescriptor, NewBrightnessDetector)
	r.Register(ContrastDescriptor, NewContrastDetector)
	r.Register(ColorDescriptor, NewColorDetector)
	r.Register(NoiseDescriptor, NewNoiseDetector)
	r.Register(StripeDescriptor, NewStripeDetector)
	return r
}
