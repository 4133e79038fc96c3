package main

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/yourorg/transitcat/internal/catalogue"
	"github.com/yourorg/transitcat/internal/geo"
	"github.com/yourorg/transitcat/internal/snapshot"
)

func TestSnapshotStateStartsUnloaded(t *testing.T) {
	s := &snapshotState{}
	_, loaded := s.get()
	if loaded {
		t.Fatal("zero-value snapshotState reports loaded")
	}
}

func TestSnapshotStateLoad(t *testing.T) {
	cat := catalogue.New()
	if err := cat.AddStop(catalogue.StopDescriptor{
		Type: catalogue.StopOrdinary, Name: "A", Coords: geo.Point{Lat: 1, Lng: 2},
	}); err != nil {
		t.Fatalf("AddStop: %v", err)
	}

	path := filepath.Join(t.TempDir(), "snap.bin")
	f, err := os.Create(path)
	if err != nil {
		t.Fatalf("create: %v", err)
	}
	if err := snapshot.Write(f, snapshot.State{Catalogue: cat}); err != nil {
		t.Fatalf("Write: %v", err)
	}
	f.Close()

	s := &snapshotState{}
	if err := s.load(path); err != nil {
		t.Fatalf("load: %v", err)
	}
	env, loaded := s.get()
	if !loaded {
		t.Fatal("expected loaded=true after load")
	}
	if env.Catalogue.GetStop("A").Name != "A" {
		t.Fatalf("loaded catalogue missing stop A: %+v", env.Catalogue.GetStop("A"))
	}
}

func TestSnapshotStateLoadMissingFile(t *testing.T) {
	s := &snapshotState{}
	if err := s.load(filepath.Join(t.TempDir(), "missing.bin")); err == nil {
		t.Fatal("expected an error loading a missing snapshot file")
	}
	if _, loaded := s.get(); loaded {
		t.Fatal("failed load must not flip loaded to true")
	}
}
