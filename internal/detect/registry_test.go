package detect

import "testing"

func TestRegistry_ListOrdersByPriorityThenName(t *testing.T) {
	r := NewRegistry()
	r.Register(DetectorDescriptor{Name: "z", Priority: 5}, func(Config) (Detector, error) { return nil, nil })
	r.Register(DetectorDescriptor{Name: "a", Priority: 5}, func(Config) (Detector, error) { return nil, nil })
	r.Register(DetectorDescriptor{Name: "b", Priority: 1}, func(Config) (Detector, error) { return nil, nil })

	list := r.List()
	if len(list) != 3 {
		t.Fatalf("List() returned %d entries; want 3", len(list))
	}
	if list[0].Name != "b" || list[1].Name != "a" || list[2].Name != "z" {
		t.Errorf("List() order = [%s %s %s]; want [b a z]", list[0].Name, list[1].Name, list[2].Name)
	}
}

func TestRegistry_InstantiateUnknownDetector(t *testing.T) {
	r := NewRegistry()
	_, err := r.Instantiate("nonexistent", Config{})
	if err == nil {
		t.Fatal("expected an error for unknown detector, got nil")
	}
}

func TestRegistry_SuppressionGraph(t *testing.T) {
	r := NewRegistry()
	r.Register(DetectorDescriptor{Name: "blur", Suppresses: []string{"noise"}}, func(Config) (Detector, error) { return nil, nil })
	r.Register(DetectorDescriptor{Name: "noise"}, func(Config) (Detector, error) { return nil, nil })

	graph := r.SuppressionGraph()
	if _, ok := graph["blur"]["noise"]; !ok {
		t.Error("expected blur to suppress noise in the derived graph")
	}
	if len(graph["noise"]) != 0 {
		t.Error("expected noise to suppress nothing")
	}
}

func TestNewDefaultRegistry_RegistersAllEightDetectors(t *testing.T) {
	r := NewDefaultRegistry()
	want := []string{"blur", "brightness", "contrast", "color", "noise", "stripe", "occlusion", "signal_loss"}
	for _, name := range want {
		if _, ok := r.Descriptor(name); !ok {
			t.Errorf("default registry missing detector %q", name)
		}
	}
	if len(r.List()) != len(want) {
		t.Errorf("default registry has %d detectors; want %d", len(r.List()), len(want))
	}
}
