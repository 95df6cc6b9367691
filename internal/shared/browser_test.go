package shared

import "testing"

func TestBrowserCommand(t *testing.T) {
	tc := []struct {
		goos    string
		want    string
		wantErr bool
	}{
		{goos: "darwin", want: "open"},
		{goos: "linux", want: "xdg-open"},
		{goos: "windows", want: "rundll32"},
		{goos: "plan9", wantErr: true},
	}

	for _, tt := range tc {
		t.Run(tt.goos, func(t *testing.T) {
			name, args, err := browserCommand(tt.goos, "http://127.0.0.1:5000/")
			if (err != nil) != tt.wantErr {
				t.Fatalf("browserCommand() error = %v, wantErr %v", err, tt.wantErr)
			}
			if tt.wantErr {
				return
			}
			if name != tt.want {
				t.Errorf("browserCommand() name = %v, want %v", name, tt.want)
			}
			if args[len(args)-1] != "http://127.0.0.1:5000/" {
				t.Errorf("expected url as last argument, got %v", args)
			}
		})
	}

	t.Run("OpenBrowser unsupported runtime", func(t *testing.T) {
		orig := getRuntime
		getRuntime = func() string { return "plan9" }
		defer func() { getRuntime = orig }()

		if err := OpenBrowser("http://example.com"); err == nil {
			t.Error("expected error for unsupported platform")
		}
	})
}
