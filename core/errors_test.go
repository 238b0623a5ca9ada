package core

import (
	"errors"
	"fmt"
	"testing"
)

func TestErrorHelpersUnwrap(t *testing.T) {
	wrapped := fmt.Errorf("get item: %w", ErrCatalogNotFound)

	if !IsNotFound(wrapped) {
		t.Error("IsNotFound should see through fmt.Errorf wrapping")
	}
	if got := GetDomainError(wrapped); got == nil || got.Module != ModuleCatalog {
		t.Errorf("GetDomainError(wrapped) = %+v, want catalog sentinel", got)
	}

	deep := fmt.Errorf("load: %w", fmt.Errorf("store: %w", ErrStoreNotFound))
	if !IsNotFound(deep) {
		t.Error("IsNotFound should unwrap nested chains")
	}

	if IsNotFound(errors.New("plain")) {
		t.Error("plain error reported as not found")
	}
	if GetDomainError(nil) != nil {
		t.Error("GetDomainError(nil) should be nil")
	}
	if IsUnavailable(wrapped) {
		t.Error("NOT_FOUND sentinel reported as unavailable")
	}
}
