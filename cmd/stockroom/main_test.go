package main

import (
	stdtesting "testing"

	"github.com/odyssey-erp/stockroom/internal/app"
	_ "github.com/odyssey-erp/stockroom/testing"
)

func TestMainSkipsStartupInTestMode(t *stdtesting.T) {
	app.RefreshTestMode()
	if !app.InTestMode() {
		t.Fatal("expected test mode to be enabled")
	}
	main()
}
