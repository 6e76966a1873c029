package app

import "testing"

func TestSubsystemsForModes(t *testing.T) {
	cases := map[string]subsystems{
		// monitor is the passive price surface: ingest and serve, never detect.
		"monitor": {Ingest: true, Sweeper: true, Server: true},
		"scan":    {Ingest: true, ScanAfterUpdate: true, Sweeper: true, ScanLoop: true},
		"serve":   {Server: true},
		"full":    {Ingest: true, ScanAfterUpdate: true, Sweeper: true, ScanLoop: true, Server: true},
	}
	for mode, want := range cases {
		got, err := subsystemsFor(mode)
		if err != nil {
			t.Fatalf("%s: %v", mode, err)
		}
		if got != want {
			t.Errorf("%s = %+v, want %+v", mode, got, want)
		}
	}
}

func TestSubsystemsForCaseInsensitive(t *testing.T) {
	got, err := subsystemsFor("FULL")
	if err != nil {
		t.Fatal(err)
	}
	if !got.ScanLoop || !got.Server {
		t.Errorf("FULL = %+v", got)
	}
}

func TestSubsystemsForUnknownMode(t *testing.T) {
	if _, err := subsystemsFor("yolo"); err == nil {
		t.Fatal("expected an error for an unknown mode")
	}
}
