package cmd

import (
	"bytes"
	"errors"
	"io"
	"strings"
	"testing"

	"github.com/thatjpcsguy/crossport/internal/registry"
	"github.com/thatjpcsguy/crossport/internal/snapshot"
)

type fakeStore struct {
	byName   map[string]*registry.Reservation
	reserved map[int]bool
	err      error
}

func (f *fakeStore) Get(name string) (*registry.Reservation, error) {
	if f.err != nil {
		return nil, f.err
	}
	if res, ok := f.byName[name]; ok {
		return res, nil
	}
	return nil, registry.ErrNotFound
}

func (f *fakeStore) ReservedPorts() (map[int]bool, error) {
	return f.reserved, f.err
}

func TestSuggestPort(t *testing.T) {
	busy := map[uint16]bool{3000: true}
	available := func(p uint16) bool { return !busy[p] }

	store := &fakeStore{
		byName: map[string]*registry.Reservation{
			"api":    {Name: "api", Port: 3005},
			"legacy": {Name: "legacy", Port: 8000},
		},
		reserved: map[int]bool{3001: true, 3005: true, 8000: true},
	}

	tests := []struct {
		name    string
		store   reservationStore
		reserve string
		base    uint16
		max     uint16
		want    uint16
	}{
		{"no registry", nil, "", 3000, 3010, 3001},
		{"skips reserved", store, "", 3000, 3010, 3002},
		{"keeps own reservation", store, "api", 3000, 3010, 3005},
		{"own reservation out of range", store, "legacy", 3000, 3010, 3002},
		{"new name", store, "web", 3000, 3010, 3002},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, err := suggestPort(tt.store, tt.reserve, tt.base, tt.max, available, io.Discard)
			if err != nil {
				t.Fatalf("suggestPort() error: %v", err)
			}
			if got != tt.want {
				t.Errorf("suggestPort() = %d, want %d", got, tt.want)
			}
		})
	}
}

func TestSuggestPort_Exhausted(t *testing.T) {
	store := &fakeStore{reserved: map[int]bool{4000: true, 4001: true}}
	_, err := suggestPort(store, "", 4000, 4001, func(uint16) bool { return true }, io.Discard)
	if !errors.Is(err, snapshot.ErrNoFreePort) {
		t.Errorf("error = %v, want ErrNoFreePort", err)
	}
}

func TestSuggestPort_StoreError(t *testing.T) {
	store := &fakeStore{err: errors.New("database is locked")}
	if _, err := suggestPort(store, "api", 3000, 3010, func(uint16) bool { return true }, io.Discard); err == nil {
		t.Error("suggestPort() should surface registry errors")
	}
}

func TestSuggestPort_KeptReservationInUse(t *testing.T) {
	store := &fakeStore{
		byName:   map[string]*registry.Reservation{"api": {Name: "api", Port: 3005}},
		reserved: map[int]bool{3005: true},
	}
	var out bytes.Buffer

	got, err := suggestPort(store, "api", 3000, 3010, func(p uint16) bool { return p != 3005 }, &out)
	if err != nil {
		t.Fatalf("suggestPort() error: %v", err)
	}
	if got != 3005 {
		t.Errorf("suggestPort() = %d, want kept 3005", got)
	}
	if !strings.Contains(out.String(), "port 3005 reserved for api is in use") {
		t.Errorf("notice = %q", out.String())
	}

	out.Reset()
	if _, err := suggestPort(store, "api", 3000, 3010, func(uint16) bool { return true }, &out); err != nil {
		t.Fatal(err)
	}
	if out.Len() != 0 {
		t.Errorf("unexpected notice for a bindable port: %q", out.String())
	}
}
