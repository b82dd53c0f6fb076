package memory

import (
	"runtime/debug"
	"testing"
)

// restoreMemoryLimit resets the process-wide limit after a test changes it.
func restoreMemoryLimit(t *testing.T) {
	t.Helper()
	prev := debug.SetMemoryLimit(-1)
	t.Cleanup(func() { debug.SetMemoryLimit(prev) })
}

func TestConfigureFromEnv(t *testing.T) {
	tests := []struct {
		name        string
		memoryLimit string
		ratio       string
		want        ConfigResult
	}{
		{
			name: "nothing set",
			want: ConfigResult{Source: SourceNone},
		},
		{
			name:        "container limit with default ratio",
			memoryLimit: "1073741824",
			want: ConfigResult{
				Configured:     true,
				Source:         SourceMemoryLimit,
				ContainerLimit: 1 << 30,
				GoMemLimit:     int64(float64(1<<30) * DefaultMemoryRatio),
				Ratio:          DefaultMemoryRatio,
			},
		},
		{
			name:        "custom ratio",
			memoryLimit: "1000000",
			ratio:       "0.5",
			want: ConfigResult{
				Configured:     true,
				Source:         SourceMemoryLimit,
				ContainerLimit: 1000000,
				GoMemLimit:     500000,
				Ratio:          0.5,
			},
		},
		{
			name:        "ratio out of range falls back",
			memoryLimit: "1000000",
			ratio:       "1.5",
			want: ConfigResult{
				Configured:     true,
				Source:         SourceMemoryLimit,
				ContainerLimit: 1000000,
				GoMemLimit:     750000,
				Ratio:          DefaultMemoryRatio,
			},
		},
		{
			name:        "unparseable limit",
			memoryLimit: "2Gi",
			want:        ConfigResult{Source: SourceNone},
		},
		{
			name:        "negative limit",
			memoryLimit: "-5",
			want:        ConfigResult{Source: SourceNone},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			restoreMemoryLimit(t)
			t.Setenv("GOMEMLIMIT", "")
			t.Setenv("MEMORY_LIMIT", tt.memoryLimit)
			t.Setenv("MEMORY_RATIO", tt.ratio)

			got := ConfigureFromEnv()
			if got != tt.want {
				t.Errorf("ConfigureFromEnv() = %+v, want %+v", got, tt.want)
			}
			if tt.want.Configured {
				if limit := debug.SetMemoryLimit(-1); limit != tt.want.GoMemLimit {
					t.Errorf("runtime limit = %d, want %d", limit, tt.want.GoMemLimit)
				}
			}
		})
	}
}

func TestConfigureFromEnvPrefersGOMEMLIMIT(t *testing.T) {
	restoreMemoryLimit(t)
	debug.SetMemoryLimit(256 << 20)
	t.Setenv("GOMEMLIMIT", "256MiB")
	t.Setenv("MEMORY_LIMIT", "1073741824")

	got := ConfigureFromEnv()
	if got.Source != SourceGoMemLimit || !got.Configured || got.GoMemLimit != 256<<20 {
		t.Errorf("ConfigureFromEnv() = %+v", got)
	}
}

func TestParseRatio(t *testing.T) {
	tests := map[string]float64{
		"":     DefaultMemoryRatio,
		"0.6":  0.6,
		"1":    1,
		"0":    DefaultMemoryRatio,
		"abc":  DefaultMemoryRatio,
		"-0.2": DefaultMemoryRatio,
	}
	for in, want := range tests {
		if got := parseRatio(in); got != want {
			t.Errorf("parseRatio(%q) = %v, want %v", in, got, want)
		}
	}
}
