package pipeline

import (
	"errors"
	"testing"
)

func TestMemoryGraphCreateAddLink(t *testing.T) {
	g := NewMemoryGraph()

	src, err := g.CreateNode("videotestsrc", "cam0")
	if err != nil {
		t.Fatalf("CreateNode failed: %v", err)
	}
	comp, err := g.CreateNode("compositor", "comp")
	if err != nil {
		t.Fatalf("CreateNode failed: %v", err)
	}
	g.Add(src)
	g.Add(comp)

	if err := g.Link(src, comp); err != nil {
		t.Fatalf("Link failed: %v", err)
	}

	if !g.Contains("cam0") || !g.Contains("comp") {
		t.Error("Expected both nodes attached")
	}
	links := g.Links()
	if len(links) != 1 || links[0] != "cam0->comp" {
		t.Errorf("Expected single link cam0->comp, got %v", links)
	}
	kinds := g.CreatedKinds()
	if len(kinds) != 2 || kinds[0] != "videotestsrc" || kinds[1] != "compositor" {
		t.Errorf("Unexpected creation order: %v", kinds)
	}
}

func TestMemoryGraphDuplicateName(t *testing.T) {
	g := NewMemoryGraph()
	if _, err := g.CreateNode("queue", "q"); err != nil {
		t.Fatalf("CreateNode failed: %v", err)
	}
	_, err := g.CreateNode("queue", "q")
	if !errors.Is(err, ErrElementUnavailable) {
		t.Errorf("Expected ErrElementUnavailable for duplicate name, got %v", err)
	}
}

func TestMemoryGraphRemoveDropsLinks(t *testing.T) {
	g := NewMemoryGraph()
	a, _ := g.CreateNode("queue", "a")
	b, _ := g.CreateNode("queue", "b")
	c, _ := g.CreateNode("queue", "c")
	g.Add(a)
	g.Add(b)
	g.Add(c)
	if err := g.Link(a, b); err != nil {
		t.Fatalf("Link failed: %v", err)
	}
	if err := g.Link(b, c); err != nil {
		t.Fatalf("Link failed: %v", err)
	}

	g.Remove(b)

	if g.Contains("b") {
		t.Error("Expected b detached")
	}
	if links := g.Links(); len(links) != 0 {
		t.Errorf("Expected links dropped with node, got %v", links)
	}
}

func TestMemoryGraphFailureInjection(t *testing.T) {
	g := NewMemoryGraph()
	g.FailKinds["nvh264enc"] = true
	g.FailLinks["a->b"] = true
	g.FailPads["comp/sink_0"] = true

	if _, err := g.CreateNode("nvh264enc", "enc"); !errors.Is(err, ErrElementUnavailable) {
		t.Errorf("Expected ErrElementUnavailable, got %v", err)
	}

	a, _ := g.CreateNode("queue", "a")
	b, _ := g.CreateNode("queue", "b")
	if err := g.Link(a, b); !errors.Is(err, ErrLinkFailure) {
		t.Errorf("Expected ErrLinkFailure, got %v", err)
	}

	comp, _ := g.CreateNode("compositor", "comp")
	if _, err := g.Pad(comp, "sink_0"); !errors.Is(err, ErrNotFound) {
		t.Errorf("Expected ErrNotFound for failing pad, got %v", err)
	}
	if _, err := g.Pad(comp, "sink_1"); err != nil {
		t.Errorf("Expected other pads unaffected, got %v", err)
	}
}

func TestMemoryGraphPadWriteLog(t *testing.T) {
	g := NewMemoryGraph()
	comp, _ := g.CreateNode("compositor", "comp")
	pad, err := g.Pad(comp, "sink_0")
	if err != nil {
		t.Fatalf("Pad failed: %v", err)
	}

	pad.SetProperty("alpha", 0.0)
	pad.SetProperty("xpos", 100)
	pad.SetProperty("alpha", 1.0)

	mp := g.NodePad("comp", "sink_0")
	if got := mp.Property("alpha"); got != 1.0 {
		t.Errorf("Expected last alpha 1.0, got %v", got)
	}
	writes := mp.Writes("alpha")
	if len(writes) != 2 {
		t.Fatalf("Expected 2 alpha writes, got %d", len(writes))
	}
	if writes[0].Value != 0.0 || writes[1].Value != 1.0 {
		t.Errorf("Unexpected alpha write order: %v", writes)
	}
	if all := mp.Writes(""); len(all) != 3 {
		t.Errorf("Expected 3 total writes, got %d", len(all))
	}
}

func TestMemoryGraphMessages(t *testing.T) {
	g := NewMemoryGraph()
	g.Post(Message{Source: "out0_sink", Type: MsgBytesSent, Payload: uint64(4096)})

	m := <-g.Messages()
	if m.Type != MsgBytesSent {
		t.Errorf("Expected %q message, got %q", MsgBytesSent, m.Type)
	}
	if m.Payload.(uint64) != 4096 {
		t.Errorf("Expected payload 4096, got %v", m.Payload)
	}
}
