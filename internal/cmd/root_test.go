package cmd

import (
	"strings"
	"testing"

	"github.com/thatjpcsguy/crossport/internal/snapshot"
)

func TestParsePort(t *testing.T) {
	tests := []struct {
		in      string
		want    uint16
		wantErr bool
	}{
		{"3000", 3000, false},
		{"65535", 65535, false},
		{"0", 0, true},
		{"65536", 0, true},
		{"-1", 0, true},
		{"http", 0, true},
	}

	for _, tt := range tests {
		got, err := parsePort(tt.in)
		if (err != nil) != tt.wantErr {
			t.Errorf("parsePort(%q) error = %v, wantErr %v", tt.in, err, tt.wantErr)
			continue
		}
		if got != tt.want {
			t.Errorf("parsePort(%q) = %d, want %d", tt.in, got, tt.want)
		}
	}
}

func TestRootRejectsBadPort(t *testing.T) {
	root := NewRootCmd("test")
	root.SetArgs([]string{"not-a-port"})

	err := root.Execute()
	if err == nil || !strings.Contains(err.Error(), "invalid port") {
		t.Errorf("Execute() error = %v, want invalid port", err)
	}
}

func TestRootHasSubcommands(t *testing.T) {
	root := NewRootCmd("test")
	for _, name := range []string{"scan", "suggest", "kill", "ui", "reservations", "release"} {
		if _, _, err := root.Find([]string{name}); err != nil {
			t.Errorf("subcommand %s missing: %v", name, err)
		}
	}
}

func TestKillRejectsBadPort(t *testing.T) {
	root := NewRootCmd("test")
	root.SetArgs([]string{"kill", "99999"})
	if err := root.Execute(); err == nil {
		t.Error("kill should reject an out-of-range port")
	}
}

func TestDecodeRecords(t *testing.T) {
	data := []byte(`[{"pid":42,"user":"dev","cmd":"node","cwd":"/src/app","project_root":"/src/app","kind":"dev","port":3000},
{"pid":7,"user":"root","cmd":"docker-proxy","cwd":"/","container_name":"db","kind":"docker","port":5432}]`)

	records, err := decodeRecords(data)
	if err != nil {
		t.Fatalf("decodeRecords() error: %v", err)
	}
	if len(records) != 2 {
		t.Fatalf("got %d records, want 2", len(records))
	}
	if records[0].Kind != snapshot.KindDev || records[0].Port != 3000 || records[0].ProjectRoot != "/src/app" {
		t.Errorf("record 0 = %+v", records[0])
	}
	if records[1].Kind != snapshot.KindContainer || records[1].Container != "db" {
		t.Errorf("record 1 = %+v", records[1])
	}

	if _, err := decodeRecords([]byte("bash: crossport: command not found")); err == nil {
		t.Error("decodeRecords() should fail on non-JSON output")
	}
}
