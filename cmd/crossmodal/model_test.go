package main

import (
	"errors"
	"fmt"
	"strings"
	"testing"

	"github.com/example/crossmodal/internal/hub"
)

func TestDownloadErr_AccessDeniedAddsTokenHint(t *testing.T) {
	cause := fmt.Errorf("fetch model.onnx: %w", &hub.ErrAccessDenied{Repo: "crossmodal/german-tacotron2-onnx"})

	err := downloadErr("acoustic-de", cause)
	if err == nil {
		t.Fatal("want error")
	}
	if !strings.Contains(err.Error(), "set --hf-token or HF_TOKEN") {
		t.Errorf("missing token hint in %q", err.Error())
	}

	// The denial must stay reachable through the wrap chain.
	var denied *hub.ErrAccessDenied
	if !errors.As(err, &denied) {
		t.Error("wrapped error no longer matches *hub.ErrAccessDenied")
	}
}

func TestDownloadErr_GenericFailureHasNoHint(t *testing.T) {
	err := downloadErr("vocoder-de", errors.New("connection reset"))
	if err == nil {
		t.Fatal("want error")
	}
	if strings.Contains(err.Error(), "hf-token") {
		t.Errorf("unexpected token hint in %q", err.Error())
	}
	if !strings.Contains(err.Error(), "vocoder-de") {
		t.Errorf("missing model ID in %q", err.Error())
	}
}
