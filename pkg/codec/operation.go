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

package codec

import (
	"fmt"

	"github.com/united-manufacturing-hub/twinstore/pkg/model"
	"github.com/united-manufacturing-hub/twinstore/pkg/persistence"
)

const (
	fieldHandle            = "handle"
	fieldResult            = "result"
	fieldOutputArguments   = "outputArguments"
	fieldInoutputArguments = "inoutputArguments"
)

// operationResultHeader holds the scalar part of an operation result.
type operationResultHeader struct {
	ExecutionState model.ExecutionState `json:"executionState"`
	Messages       []model.Message      `json:"messages,omitempty"`
	Success        bool                 `json:"success"`
}

// EncodeOperationResult builds the stored form {id, handle, result}, keyed by the
// handle id.
func EncodeOperationResult(handle model.OperationHandle, result model.OperationResult) (persistence.Document, error) {
	handleDoc, err := toDocument(handle)
	if err != nil {
		return nil, fmt.Errorf("encoding operation handle: %w", err)
	}

	resultDoc, err := toDocument(operationResultHeader{
		ExecutionState: result.ExecutionState,
		Messages:       result.Messages,
		Success:        result.Success,
	})
	if err != nil {
		return nil, fmt.Errorf("encoding operation result: %w", err)
	}

	if resultDoc[fieldOutputArguments], err = encodeVariables(result.OutputArguments); err != nil {
		return nil, fmt.Errorf("encoding output arguments: %w", err)
	}

	if resultDoc[fieldInoutputArguments], err = encodeVariables(result.InoutputArguments); err != nil {
		return nil, fmt.Errorf("encoding inoutput arguments: %w", err)
	}

	return persistence.Document{
		persistence.IDField: handle.HandleID,
		fieldHandle:         handleDoc,
		fieldResult:         resultDoc,
	}, nil
}

// DecodeOperationResult reads the result part of a stored operation result.
func DecodeOperationResult(v interface{}) (model.OperationResult, error) {
	doc, ok := persistence.AsMap(v)
	if !ok {
		return model.OperationResult{}, fmt.Errorf("operation result document must be an object, got %T", v)
	}

	resultDoc, ok := persistence.AsMap(doc[fieldResult])
	if !ok {
		return model.OperationResult{}, fmt.Errorf("operation result document has no result")
	}

	var header operationResultHeader
	if err := fromDocument(resultDoc, &header); err != nil {
		return model.OperationResult{}, fmt.Errorf("decoding operation result: %w", err)
	}

	out, err := decodeVariables(resultDoc[fieldOutputArguments])
	if err != nil {
		return model.OperationResult{}, fmt.Errorf("decoding output arguments: %w", err)
	}

	inout, err := decodeVariables(resultDoc[fieldInoutputArguments])
	if err != nil {
		return model.OperationResult{}, fmt.Errorf("decoding inoutput arguments: %w", err)
	}

	return model.OperationResult{
		ExecutionState:    header.ExecutionState,
		Messages:          header.Messages,
		Success:           header.Success,
		OutputArguments:   out,
		InoutputArguments: inout,
	}, nil
}

func encodeVariables(vars []model.OperationVariable) ([]interface{}, error) {
	out := make([]interface{}, 0, len(vars))

	for _, v := range vars {
		doc, err := EncodeElement(v.Value)
		if err != nil {
			return nil, err
		}

		out = append(out, map[string]interface{}{FieldValue: map[string]interface{}(doc)})
	}

	return out, nil
}

func decodeVariables(raw interface{}) ([]model.OperationVariable, error) {
	arr, _ := persistence.AsArray(raw)
	if len(arr) == 0 {
		return nil, nil
	}

	out := make([]model.OperationVariable, 0, len(arr))

	for i, entry := range arr {
		m, ok := persistence.AsMap(entry)
		if !ok {
			return nil, fmt.Errorf("variable %d must be an object", i)
		}

		e, err := DecodeElement(m[FieldValue])
		if err != nil {
			return nil, fmt.Errorf("variable %d: %w", i, err)
		}

		out = append(out, model.OperationVariable{Value: e})
	}

	return out, nil
}
