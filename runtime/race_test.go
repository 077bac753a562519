package runtime

import "testing"

func sampleEntry() Entry {
	return Entry{
		LeftProc:   "p",
		RightProc:  "q",
		WinnerSide: Left,
		WinnerProc: "p",
		LoserProc:  "q",
		VWinner:    Int(1),
		VLoser:     Int(2),
		Discharged: false,
	}
}

func TestMemoryContainsAndGet(t *testing.T) {
	m := NewMemory()
	k := RaceKey{Process: "a", Key: "k"}

	if m.Contains(k) {
		t.Fatal("fresh memory should not contain any key")
	}
	m.Put(k, sampleEntry())
	if !m.Contains(k) {
		t.Fatal("memory should contain k after Put")
	}

	e, ok := m.Get(k)
	if !ok || e.WinnerProc != "p" || e.LoserProc != "q" {
		t.Fatalf("Get(k) = %+v, %v; want winner=p loser=q", e, ok)
	}
}

func TestMemoryPutTwiceOnSameKeyPanics(t *testing.T) {
	m := NewMemory()
	k := RaceKey{Process: "a", Key: "k"}
	m.Put(k, sampleEntry())

	defer func() {
		if recover() == nil {
			t.Fatal("second Put on an already-resolved key should panic")
		}
	}()
	m.Put(k, sampleEntry())
}

func TestMemoryDischargeFlipsOnlyDischargedField(t *testing.T) {
	m := NewMemory()
	k := RaceKey{Process: "a", Key: "k"}
	m.Put(k, sampleEntry())

	e, ok := m.GetMut(k)
	if !ok {
		t.Fatal("GetMut should find the just-inserted key")
	}
	e.Discharged = true

	got, _ := m.Get(k)
	if !got.Discharged {
		t.Fatal("Discharged should be true after flipping it via GetMut")
	}
	if got.WinnerProc != "p" || got.VWinner != Int(1) {
		t.Fatalf("flipping Discharged must not perturb other fields, got %+v", got)
	}
}

func TestMemorySnapshotKeysByProcessBracketKey(t *testing.T) {
	m := NewMemory()
	m.Put(RaceKey{Process: "a", Key: "k"}, sampleEntry())

	snap := m.Snapshot()
	if _, ok := snap["a[k]"]; !ok {
		t.Fatalf("snapshot should key by process[key], got keys %v", snap)
	}
}

func TestSideString(t *testing.T) {
	if Left.String() != "left" {
		t.Errorf("Left.String() = %q, want left", Left.String())
	}
	if Right.String() != "right" {
		t.Errorf("Right.String() = %q, want right", Right.String())
	}
}
