package service

import (
	"context"
	"fmt"

	texttospeech "cloud.google.com/go/texttospeech/apiv1"
	"cloud.google.com/go/texttospeech/apiv1/texttospeechpb"
	"github.com/googleapis/gax-go/v2"
	"google.golang.org/api/option"
)

// Synthesizer converte texto em áudio.
type Synthesizer interface {
	Synthesize(ctx context.Context, text string) ([]byte, error)
}

// SpeechClient é o subconjunto do cliente Cloud Text-to-Speech usado aqui.
type SpeechClient interface {
	SynthesizeSpeech(ctx context.Context, req *texttospeechpb.SynthesizeSpeechRequest, opts ...gax.CallOption) (*texttospeechpb.SynthesizeSpeechResponse, error)
	Close() error
}

// Voice define idioma e voz da síntese.
type Voice struct {
	LanguageCode string
	Name         string
}

// CloudSynthesizer sintetiza MP3 via Google Cloud Text-to-Speech.
type CloudSynthesizer struct {
	client SpeechClient
	voice  Voice
}

// NewCloudSynthesizer cria o cliente gRPC autenticado com as credenciais da service account.
func NewCloudSynthesizer(ctx context.Context, credentialsJSON []byte, voice Voice) (*CloudSynthesizer, error) {
	client, err := texttospeech.NewClient(ctx, option.WithCredentialsJSON(credentialsJSON))
	if err != nil {
		return nil, fmt.Errorf("failed to create text-to-speech client: %w", err)
	}
	return NewSynthesizerFromClient(client, voice), nil
}

// NewSynthesizerFromClient envolve um SpeechClient já construído.
func NewSynthesizerFromClient(client SpeechClient, voice Voice) *CloudSynthesizer {
	return &CloudSynthesizer{client: client, voice: voice}
}

// Synthesize devolve os bytes MP3 do texto informado.
func (s *CloudSynthesizer) Synthesize(ctx context.Context, text string) ([]byte, error) {
	resp, err := s.client.SynthesizeSpeech(ctx, &texttospeechpb.SynthesizeSpeechRequest{
		Input: &texttospeechpb.SynthesisInput{
			InputSource: &texttospeechpb.SynthesisInput_Text{Text: text},
		},
		Voice: &texttospeechpb.VoiceSelectionParams{
			LanguageCode: s.voice.LanguageCode,
			Name:         s.voice.Name,
		},
		AudioConfig: &texttospeechpb.AudioConfig{
			AudioEncoding: texttospeechpb.AudioEncoding_MP3,
		},
	})
	if err != nil {
		return nil, err
	}
	return resp.GetAudioContent(), nil
}

// Close fecha a conexão gRPC.
func (s *CloudSynthesizer) Close() error {
	return s.client.Close()
}
