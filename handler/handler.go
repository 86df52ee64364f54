package handler

import (
	"context"
	"encoding/json"

	amqp "github.com/rabbitmq/amqp091-go"
	"github.com/rs/zerolog"

	"subtitle-worker/dto"
	"subtitle-worker/service"
)

type ServiceDependencies struct {
	MediaService    service.Service
	SubtitleService service.SubtitleService
}

func ProcessHandler(ctx context.Context, msg amqp.Delivery, deps ServiceDependencies) error {
	var message dto.ProcessMessage
	if err := json.Unmarshal(msg.Body, &message); err != nil {
		return err
	}

	zerolog.Ctx(ctx).Info().
		Str("file_id", message.FileId.String()).
		Msg("received process request")

	// Fire and forget: the message is acked now and the job reports its
	// outcome through the status tracker and the media_files row.
	deps.MediaService.StartDetached(ctx, message)

	return nil
}

func TranscriptionHandler(ctx context.Context, msg amqp.Delivery, deps ServiceDependencies) error {
	var message dto.TranscriptionMessage
	if err := json.Unmarshal(msg.Body, &message); err != nil {
		zerolog.Ctx(ctx).Error().Err(err).Msg("failed to unmarshal transcription message")
		return err
	}

	zerolog.Ctx(ctx).Info().
		Str("transcription_id", message.TranscriptionId.String()).
		Msg("received transcription result")

	_, err := deps.SubtitleService.StoreTranscription(ctx, message.TranscriptionId, message.ProviderResult, service.SplitOptions{})
	if err != nil {
		return err
	}

	return nil
}

func TranslateHandler(ctx context.Context, msg amqp.Delivery, deps ServiceDependencies) error {
	var message dto.TranslateMessage
	if err := json.Unmarshal(msg.Body, &message); err != nil {
		zerolog.Ctx(ctx).Error().Err(err).Msg("failed to unmarshal translate message")
		return err
	}

	zerolog.Ctx(ctx).Info().
		Str("transcription_id", message.TranscriptionId.String()).
		Str("language", message.TargetLanguage).
		Msg("received translation result")

	err := deps.SubtitleService.StoreTranslation(ctx, message.TranscriptionId, message.TargetLanguage, message.Texts)
	if err != nil {
		return err
	}

	return nil
}
