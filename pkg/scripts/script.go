// Copyright 2025 Ewout Prangsma
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
//
// Author Ewout Prangsma
//

package scripts

import (
	"bytes"
	"context"
	"os"
	"os/exec"
	"path/filepath"

	"github.com/pkg/errors"

	"github.com/labnet/LabClient/model"
)

// ScriptType identifies the interpreter of a script.
type ScriptType string

const (
	// ScriptTypeShell runs through bash.
	ScriptTypeShell ScriptType = "shell"
	// ScriptTypePython runs through the venv python interpreter.
	ScriptTypePython ScriptType = "python"
)

const shellInterpreter = "/usr/bin/bash"

// scriptTypeForExt maps a file extension on a script type.
func scriptTypeForExt(ext string) (ScriptType, error) {
	switch ext {
	case ".sh":
		return ScriptTypeShell, nil
	case ".py":
		return ScriptTypePython, nil
	}
	return "", maskAny(errors.Wrapf(model.ValidationError, "extension '%s' is not a script type", ext))
}

// Script is a single executable script found in the scripts directory.
type Script struct {
	// Path is the resolved path of the script file.
	Path string
	// Type decides the interpreter used to run the script.
	Type ScriptType
}

// NewScript builds a script from the file at the given path.
// Symlinks are followed.
func NewScript(path string) (Script, error) {
	abs, err := filepath.Abs(path)
	if err != nil {
		return Script{}, maskAny(err)
	}
	resolved, err := filepath.EvalSymlinks(abs)
	if err != nil {
		return Script{}, maskAny(err)
	}
	info, err := os.Stat(resolved)
	if err != nil {
		return Script{}, maskAny(err)
	}
	if !info.Mode().IsRegular() {
		return Script{}, maskAny(errors.Wrapf(model.ValidationError, "'%s' is not a file", resolved))
	}
	scriptType, err := scriptTypeForExt(filepath.Ext(resolved))
	if err != nil {
		return Script{}, maskAny(err)
	}
	return Script{Path: resolved, Type: scriptType}, nil
}

// Name returns the file name of the script.
func (s Script) Name() string {
	return filepath.Base(s.Path)
}

// Result holds the outcome of a script execution.
type Result struct {
	ExitCode int
	Stdout   string
	Stderr   string
}

// Execute runs the script with the given environment on top of the
// process environment. Python scripts run through the interpreter of
// the given venv directory, shell scripts through bash. The process is
// killed when the context is cancelled.
// A non zero exit code is not an error.
func (s Script) Execute(ctx context.Context, venvDir string, env Env) (Result, error) {
	var program string
	switch s.Type {
	case ScriptTypeShell:
		program = shellInterpreter
	case ScriptTypePython:
		program = filepath.Join(venvDir, "bin", "python3")
	default:
		return Result{}, maskAny(errors.Wrapf(model.ValidationError, "unsupported script type '%s'", s.Type))
	}
	cmd := exec.CommandContext(ctx, program, s.Path)
	cmd.Env = append(os.Environ(), env.List()...)
	var stdout, stderr bytes.Buffer
	cmd.Stdout = &stdout
	cmd.Stderr = &stderr
	if err := cmd.Run(); err != nil {
		if ctxErr := ctx.Err(); ctxErr != nil {
			return Result{}, maskAny(ctxErr)
		}
		exitErr, ok := err.(*exec.ExitError)
		if !ok {
			return Result{}, maskAny(errors.Wrapf(err, "cannot run '%s'", program))
		}
		return Result{
			ExitCode: exitErr.ExitCode(),
			Stdout:   stdout.String(),
			Stderr:   stderr.String(),
		}, nil
	}
	return Result{
		Stdout: stdout.String(),
		Stderr: stderr.String(),
	}, nil
}

// ValidateVenvDir checks that the given path holds a python virtual
// environment.
func ValidateVenvDir(dir string) error {
	info, err := os.Stat(dir)
	if err != nil || !info.IsDir() {
		return maskAny(errors.Wrapf(model.ValidationError, "'%s' is not a directory", dir))
	}
	python := filepath.Join(dir, "bin", "python3")
	info, err = os.Stat(python)
	if err != nil || !info.Mode().IsRegular() {
		return maskAny(errors.Wrapf(model.ValidationError, "venv python interpreter missing at '%s'", python))
	}
	return nil
}
