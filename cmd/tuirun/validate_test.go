package main

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestRunValidatePassesForDefaultConfig(t *testing.T) {
	validateRoot = t.TempDir()
	validateBackendABI = ""
	defer func() { validateRoot, validateBackendABI = "", "" }()

	err := runValidate(nil, nil)
	assert.NoError(t, err)
}

func TestRunValidateChecksBackendABIWhenGiven(t *testing.T) {
	validateRoot = t.TempDir()
	validateBackendABI = "1.0.0"
	validateDrawlistVersion = 1
	validateEventBatchVersion = 1
	defer func() {
		validateRoot, validateBackendABI = "", ""
	}()

	err := runValidate(nil, nil)
	assert.NoError(t, err)
}

func TestRunValidateRejectsIncompatibleBackendABI(t *testing.T) {
	validateRoot = t.TempDir()
	validateBackendABI = "2.0.0"
	validateDrawlistVersion = 1
	validateEventBatchVersion = 1
	defer func() {
		validateRoot, validateBackendABI = "", ""
	}()

	err := runValidate(nil, nil)
	assert.Error(t, err)
}
