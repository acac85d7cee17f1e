package session

import (
	"fmt"
	"testing"

	"github.com/brandlane/brandlane/studio-go/internal/logger"
)

func TestPreviewOfferNeverBlocks(t *testing.T) {
	c := &previewClient{send: make(chan []byte, previewSendBuffer)}

	for i := 0; i < previewSendBuffer; i++ {
		if !c.offer([]byte(fmt.Sprintf("frame-%d", i))) {
			t.Fatalf("frame %d dropped with buffer space left", i)
		}
	}
	if c.offer([]byte("overflow")) {
		t.Fatal("full buffer accepted a frame")
	}
	if got := string(<-c.send); got != "frame-0" {
		t.Fatalf("head of queue = %q, want oldest frame", got)
	}
	if !c.offer([]byte("after-drain")) {
		t.Fatal("frame dropped after buffer drained")
	}
}

func TestBroadcastDropsForLaggingSubscriber(t *testing.T) {
	p := NewPreview(logger.Nop())
	c := &previewClient{send: make(chan []byte, previewSendBuffer)}
	p.subs["doc-1"] = map[*previewClient]struct{}{c: {}}

	for i := 0; i < previewSendBuffer+3; i++ {
		p.Broadcast("doc-1", []byte(fmt.Sprintf("frame-%d", i)))
	}

	if len(c.send) != previewSendBuffer {
		t.Fatalf("queued frames = %d, want %d", len(c.send), previewSendBuffer)
	}
}
