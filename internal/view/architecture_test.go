package view

import (
	"testing"

	"sharedlist/testutil"
)

func TestViewDoesNotReachStorage(t *testing.T) {
	testutil.AssertNoTransitiveDependency(t, ".", testutil.InfraImportForbidden, "the view talks to a Source, never to a store")
}
