// Copyright 2025 UMH Systems GmbH
//
// Licensed under the Apache License, Version 2.0 (the "License");
// you may not use this file except in compliance with the License.
// You may obtain a copy of the License at
//
//     http://www.apache.org/licenses/LICENSE-2.0
//
// Unless required by applicable law or agreed to in writing, software
// distributed under the License is distributed on an "AS IS" BASIS,
// WITHOUT WARRANTIES OR CONDITIONS OF ANY KIND, either express or implied.
// See the License for the specific language governing permissions and
// limitations under the License.

package model

import "github.com/google/uuid"

// OperationHandle identifies an asynchronous operation invocation.
type OperationHandle struct {
	HandleID  string `json:"handleId"`
	RequestID string `json:"requestId,omitempty"`
}

// NewOperationHandle issues a handle with a fresh random id.
func NewOperationHandle(requestID string) OperationHandle {
	return OperationHandle{HandleID: uuid.NewString(), RequestID: requestID}
}

type ExecutionState string

const (
	ExecutionStateInitiated ExecutionState = "Initiated"
	ExecutionStateRunning   ExecutionState = "Running"
	ExecutionStateCompleted ExecutionState = "Completed"
	ExecutionStateCanceled  ExecutionState = "Canceled"
	ExecutionStateFailed    ExecutionState = "Failed"
	ExecutionStateTimeout   ExecutionState = "Timeout"
)

type MessageType string

const (
	MessageTypeInfo    MessageType = "Info"
	MessageTypeWarning MessageType = "Warning"
	MessageTypeError   MessageType = "Error"
)

type Message struct {
	MessageType MessageType `json:"messageType"`
	Text        string      `json:"text"`
}

// OperationVariable wraps an element passed into or out of an operation.
type OperationVariable struct {
	Value SubmodelElement
}

// OperationResult is the state and output of an operation invocation.
type OperationResult struct {
	ExecutionState    ExecutionState
	Messages          []Message
	OutputArguments   []OperationVariable
	InoutputArguments []OperationVariable
	Success           bool
}
