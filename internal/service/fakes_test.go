package service_test

import (
	"context"
	"iter"

	"cloud.google.com/go/texttospeech/apiv1/texttospeechpb"
	"github.com/googleapis/gax-go/v2"
	adkmodel "google.golang.org/adk/model"
	"google.golang.org/genai"
)

type fakeGenerator struct {
	reply   string
	err     error
	calls   int
	prompts []string
}

func (f *fakeGenerator) Generate(_ context.Context, prompt string) (string, error) {
	f.calls++
	f.prompts = append(f.prompts, prompt)
	if f.err != nil {
		return "", f.err
	}
	return f.reply, nil
}

type fakeSynthesizer struct {
	audio  []byte
	err    error
	calls  int
	inputs []string
}

func (f *fakeSynthesizer) Synthesize(_ context.Context, text string) ([]byte, error) {
	f.calls++
	f.inputs = append(f.inputs, text)
	if f.err != nil {
		return nil, f.err
	}
	return f.audio, nil
}

type fakeLLM struct {
	responses []*adkmodel.LLMResponse
	err       error
	requests  []*adkmodel.LLMRequest
}

func (f *fakeLLM) Name() string {
	return "fake-llm"
}

func (f *fakeLLM) GenerateContent(_ context.Context, req *adkmodel.LLMRequest, _ bool) iter.Seq2[*adkmodel.LLMResponse, error] {
	f.requests = append(f.requests, req)
	return func(yield func(*adkmodel.LLMResponse, error) bool) {
		for _, resp := range f.responses {
			if !yield(resp, nil) {
				return
			}
		}
		if f.err != nil {
			yield(nil, f.err)
		}
	}
}

func textResponse(parts ...*genai.Part) *adkmodel.LLMResponse {
	return &adkmodel.LLMResponse{
		Content: &genai.Content{Role: genai.RoleModel, Parts: parts},
	}
}

type fakeSpeechClient struct {
	resp     *texttospeechpb.SynthesizeSpeechResponse
	err      error
	requests []*texttospeechpb.SynthesizeSpeechRequest
	closed   bool
}

func (f *fakeSpeechClient) SynthesizeSpeech(_ context.Context, req *texttospeechpb.SynthesizeSpeechRequest, _ ...gax.CallOption) (*texttospeechpb.SynthesizeSpeechResponse, error) {
	f.requests = append(f.requests, req)
	if f.err != nil {
		return nil, f.err
	}
	return f.resp, nil
}

func (f *fakeSpeechClient) Close() error {
	f.closed = true
	return nil
}
