package video

import "testing"

func TestListVideoDetectors_NamesAllThreeTemporalDetectors(t *testing.T) {
	got := ListVideoDetectors()
	if len(got) != 3 {
		t.Fatalf("len(ListVideoDetectors()) = %d; want 3", len(got))
	}
	want := map[string]bool{"freeze": false, "scene_change": false, "shake": false}
	for _, d := range got {
		if _, ok := want[d.Name]; !ok {
			t.Errorf("unexpected detector name %q", d.Name)
			continue
		}
		want[d.Name] = true
		if d.IssueType != d.Name {
			t.Errorf("descriptor %q: IssueType = %q; want it to match Name", d.Name, d.IssueType)
		}
	}
	for name, seen := range want {
		if !seen {
			t.Errorf("ListVideoDetectors() missing %q", name)
		}
	}
}
