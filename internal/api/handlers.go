package api

import (
	"errors"
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/sirupsen/logrus"

	"github.com/hl7-message-forge/internal/config"
	"github.com/hl7-message-forge/internal/domain"
	"github.com/hl7-message-forge/internal/service"
)

const maxBatchSize = 500

// GenerateRequest is the batch generation payload. All knobs besides
// the message type are optional.
type GenerateRequest struct {
	MessageType                   string             `json:"message_type" binding:"required"`
	Count                         int                `json:"count"`
	Seed                          *int64             `json:"seed,omitempty"`
	LockedValues                  map[string]string  `json:"locked_values,omitempty"`
	SegmentInclusionProbabilities map[string]float64 `json:"segment_inclusion_probabilities,omitempty"`
	SegmentRepeatCounts           map[string]int     `json:"segment_repeat_counts,omitempty"`
	OptionalSegmentProbability    float64            `json:"optional_segment_probability,omitempty"`
	OptionalFieldProbability      float64            `json:"optional_field_probability,omitempty"`
}

// GenerateResponse carries the generated batch.
type GenerateResponse struct {
	MessageType string   `json:"message_type"`
	Count       int      `json:"count"`
	Messages    []string `json:"messages"`
}

func (r *GenerateRequest) options(seed *int64, defaults *config.GenerationConfig) *domain.GenerationOptions {
	if r.OptionalSegmentProbability == 0 {
		r.OptionalSegmentProbability = defaults.OptionalSegmentProbability
	}
	if r.OptionalFieldProbability == 0 {
		r.OptionalFieldProbability = defaults.OptionalFieldProbability
	}
	return &domain.GenerationOptions{
		Seed:                          seed,
		LockedValues:                  r.LockedValues,
		SegmentInclusionProbabilities: r.SegmentInclusionProbabilities,
		SegmentRepeatCounts:           r.SegmentRepeatCounts,
		OptionalSegmentProbability:    r.OptionalSegmentProbability,
		OptionalFieldProbability:      r.OptionalFieldProbability,
	}
}

func (s *Server) handleGenerate(c *gin.Context) {
	var req GenerateRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}
	if req.Count <= 0 {
		req.Count = 1
	}
	if req.Count > maxBatchSize {
		c.JSON(http.StatusBadRequest, gin.H{
			"error": "count exceeds maximum batch size",
			"max":   maxBatchSize,
		})
		return
	}

	messages := make([]string, 0, req.Count)
	for i := 0; i < req.Count; i++ {
		// Derived per-message seeds keep batch members distinct while
		// the batch as a whole stays reproducible.
		seed := req.Seed
		if seed != nil {
			derived := *req.Seed + int64(i)
			seed = &derived
		}

		bundle, err := s.bundles.Generate(c.Request.Context(), req.MessageType, seed)
		if err != nil {
			s.log.WithError(err).Error("Bundle generation failed")
			c.JSON(http.StatusInternalServerError, gin.H{"error": "bundle generation failed"})
			return
		}

		msg, err := s.composer.Compose(c.Request.Context(), req.MessageType, bundle, req.options(seed, s.cfg.GetGenerationConfig()))
		if err != nil {
			s.writeComposeError(c, req.MessageType, err)
			return
		}
		messages = append(messages, msg)
	}

	c.JSON(http.StatusOK, GenerateResponse{
		MessageType: req.MessageType,
		Count:       len(messages),
		Messages:    messages,
	})
}

func (s *Server) writeComposeError(c *gin.Context, messageType string, err error) {
	status := http.StatusInternalServerError
	if errors.Is(err, domain.ErrSchemaNotFound) {
		status = http.StatusNotFound
	} else if errors.Is(err, domain.ErrInvalidMessageType) {
		status = http.StatusBadRequest
	}
	s.log.WithError(err).WithFields(logrus.Fields{
		"message_type":   messageType,
		"correlation_id": c.GetString("correlation_id"),
	}).Warn("Composition failed")
	c.JSON(status, gin.H{"error": err.Error()})
}

func (s *Server) handleTriggerEvent(c *gin.Context) {
	code := c.Param("code")

	// Accept both wire form ("ADT^A01") and catalog form ("adt_a01").
	if catalog, err := service.TriggerCode(code); err == nil {
		code = catalog
	}

	event, err := s.provider.TriggerEvent(c.Request.Context(), code)
	if err != nil {
		if errors.Is(err, domain.ErrSchemaNotFound) {
			c.JSON(http.StatusNotFound, gin.H{"error": err.Error()})
			return
		}
		s.log.WithError(err).Error("Trigger event lookup failed")
		c.JSON(http.StatusInternalServerError, gin.H{"error": "schema lookup failed"})
		return
	}
	c.JSON(http.StatusOK, event)
}
