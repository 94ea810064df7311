// Package modules defines payloads of AI modules of a project:
// predictors, design workflows and evaluations of predictors.
package modules

import (
	"encoding/json"
	"time"
)

// Module statuses reported by the platform.
const (
	StatusCreated    = "CREATED"
	StatusInProgress = "INPROGRESS"
	StatusSucceeded  = "SUCCEEDED"
	StatusFailed     = "FAILED"
	StatusReady      = "READY"
)

type Predictor struct {
	ID          string `json:"id,omitempty"`
	Name        string `json:"name"`
	Description string `json:"description,omitempty"`

	// Instance is the configuration of the predictor, kept as sent by the platform.
	Instance json.RawMessage `json:"instance,omitempty"`

	Version      int        `json:"version,omitempty"`
	Status       string     `json:"status,omitempty"`
	StatusDetail []string   `json:"status_detail,omitempty"`
	Archived     bool       `json:"archived,omitempty"`
	CreatedAt    *time.Time `json:"create_time,omitempty"`
}

type DesignWorkflow struct {
	ID            string `json:"id,omitempty"`
	Name          string `json:"name"`
	Description   string `json:"description,omitempty"`
	PredictorID   string `json:"predictor_id,omitempty"`
	DesignSpaceID string `json:"design_space_id,omitempty"`

	Status       string   `json:"status,omitempty"`
	StatusDetail []string `json:"status_detail,omitempty"`
	Archived     bool     `json:"archived,omitempty"`
}

// PredictorRef names a predictor, and optionally its version.
type PredictorRef struct {
	PredictorID      string `json:"predictor_id"`
	PredictorVersion int    `json:"predictor_version,omitempty"`
}

// PredictorEvaluationExecution is a run of an evaluation workflow against a predictor.
type PredictorEvaluationExecution struct {
	ID               string   `json:"id,omitempty"`
	WorkflowID       string   `json:"workflow_id,omitempty"`
	PredictorID      string   `json:"predictor_id,omitempty"`
	PredictorVersion int      `json:"predictor_version,omitempty"`
	Status           string   `json:"status,omitempty"`
	StatusDetail     []string `json:"status_detail,omitempty"`
	Archived         bool     `json:"archived,omitempty"`
}

// ModuleRef is the payload to archive or restore a module.
type ModuleRef struct {
	ModuleUID string `json:"module_uid"`
}
