package events

import (
	"encoding/json"
	"log/slog"
	"time"

	"github.com/google/uuid"
	"github.com/nats-io/nats.go"

	"github.com/MediaVault-Hub/Asset-Service/internal/models"
)

const (
	streamName = "asset-events"

	SubjectCreated  = "assets.created"
	SubjectDeleted  = "assets.deleted"
	SubjectInfected = "assets.infected"
)

// Publisher emits asset lifecycle events to NATS JetStream. A nil Publisher
// is valid and drops everything, so callers never have to gate on whether
// eventing is configured.
type Publisher struct {
	nc     *nats.Conn
	js     nats.JetStreamContext
	logger *slog.Logger
}

// Connect dials NATS, initializes JetStream and ensures the asset event
// stream exists (idempotent).
func Connect(url string, logger *slog.Logger) (*Publisher, error) {
	opts := []nats.Option{
		nats.Name("asset-service"),
		nats.MaxReconnects(-1),
		nats.ReconnectWait(2 * time.Second),
		nats.DisconnectErrHandler(func(_ *nats.Conn, err error) {
			logger.Warn("nats disconnected", "error", err)
		}),
		nats.ReconnectHandler(func(nc *nats.Conn) {
			logger.Info("nats reconnected", "url", nc.ConnectedUrl())
		}),
	}

	nc, err := nats.Connect(url, opts...)
	if err != nil {
		return nil, err
	}

	js, err := nc.JetStream()
	if err != nil {
		nc.Close()
		return nil, err
	}

	p := &Publisher{nc: nc, js: js, logger: logger}
	if err := p.ensureStream(); err != nil {
		logger.Warn("failed to ensure event stream", "error", err)
	}
	return p, nil
}

func (p *Publisher) ensureStream() error {
	if _, err := p.js.StreamInfo(streamName); err == nil {
		return nil
	}
	_, err := p.js.AddStream(&nats.StreamConfig{
		Name:     streamName,
		Subjects: []string{"assets.*"},
		Storage:  nats.FileStorage,
		MaxAge:   30 * 24 * time.Hour,
	})
	return err
}

// Close drains the connection.
func (p *Publisher) Close() {
	if p == nil || p.nc == nil {
		return
	}
	p.nc.Close()
}

// AssetCreated announces a new or deduplicated upload.
func (p *Publisher) AssetCreated(asset *models.Asset, duplicate bool) {
	p.publish(SubjectCreated, map[string]interface{}{
		"asset_id":     asset.ID,
		"kind":         asset.Kind,
		"mime_type":    asset.MimeType,
		"size":         asset.Size,
		"content_hash": asset.ContentHash,
		"duplicate":    duplicate,
		"created_at":   asset.CreatedAt.UTC().Format(time.RFC3339),
	})
}

// AssetDeleted announces removal of an asset and its artifacts.
func (p *Publisher) AssetDeleted(assetID string) {
	p.publish(SubjectDeleted, map[string]interface{}{
		"asset_id": assetID,
	})
}

// AssetInfected announces that a stored asset failed its virus scan and was
// removed.
func (p *Publisher) AssetInfected(assetID, description string) {
	p.publish(SubjectInfected, map[string]interface{}{
		"asset_id":    assetID,
		"description": description,
	})
}

func (p *Publisher) publish(subject string, payload interface{}) {
	if p == nil || p.js == nil {
		return
	}

	data, err := json.Marshal(payload)
	if err != nil {
		p.logger.Error("failed to marshal event payload", "subject", subject, "error", err)
		return
	}

	// Message id makes redelivery after reconnects idempotent.
	if _, err := p.js.Publish(subject, data, nats.MsgId(uuid.New().String())); err != nil {
		p.logger.Warn("failed to publish event", "subject", subject, "error", err)
	}
}
