package main_test

import (
	"math"
	"os"
	"testing"

	"github.com/containerd/nerdctl/mod/tigron/expect"
	"github.com/containerd/nerdctl/mod/tigron/test"
	"github.com/containerd/nerdctl/mod/tigron/tig"

	"github.com/mycophonic/mpegh3da"
	"github.com/mycophonic/mpegh3da/internal/testutils"
	"github.com/mycophonic/mpegh3da/wav"
)

const sampleRate = 48000

// writeTone writes a channels x frames WAV where channel ch carries a sine at (ch+1) * 250 Hz.
func writeTone(helpers test.Helpers, path string, channels, frames int) {
	buf := mpegh3da.NewBuffer(channels, frames)
	for ch := range buf {
		for i := range buf[ch] {
			buf[ch][i] = 0.25 * math.Sin(2*math.Pi*float64((ch+1)*250*i)/sampleRate)
		}
	}

	file, err := os.Create(path)
	if err != nil {
		helpers.T().Log(err.Error())
		helpers.T().Fail()

		return
	}
	defer file.Close()

	format := mpegh3da.PCMFormat{SampleRate: sampleRate, BitDepth: mpegh3da.Depth24, Channels: uint(channels)} //nolint:gosec // small
	if err := wav.Encode(file, buf, format); err != nil {
		helpers.T().Log(err.Error())
		helpers.T().Fail()
	}
}

func readWAV(t tig.T, path string) (mpegh3da.Buffer, mpegh3da.PCMFormat, bool) {
	t.Helper()

	file, err := os.Open(path)
	if err != nil {
		t.Log(err.Error())
		t.Fail()

		return nil, mpegh3da.PCMFormat{}, false
	}
	defer file.Close()

	buf, format, err := wav.Decode(file)
	if err != nil {
		t.Log(err.Error())
		t.Fail()

		return nil, mpegh3da.PCMFormat{}, false
	}

	return buf, format, true
}

func energy(samples []float64) float64 {
	var e float64
	for _, s := range samples {
		e += s * s
	}

	return e
}

func TestLayouts(t *testing.T) {
	testCase := testutils.Setup()

	testCase.Command = test.Command("layouts", "--labels")
	testCase.Expected = test.Expects(expect.ExitCodeSuccess, nil,
		expect.Contains("22.2", "7.1+4H", "CH_M_L030", "CH_LFE1"))

	testCase.Run(t)
}

func TestDmx(t *testing.T) {
	testCase := testutils.Setup()

	testCase.Command = test.Command("dmx", "--in-layout", "13", "--out-layout", "6")
	testCase.Expected = test.Expects(expect.ExitCodeSuccess, nil,
		expect.Contains("raw", "run-length", "template", "M_L030"))

	testCase.Run(t)
}

func TestConvert(t *testing.T) {
	testCase := testutils.Setup()

	testCase.SubTests = []*test.Case{
		convertCase("passive-time"),
		convertCase("passive-frequency"),
		convertCase("active-frequency"),
		{
			Description: "unknown container",
			Setup: func(data test.Data, _ test.Helpers) {
				_ = os.WriteFile(data.Temp().Path("in.txt"), []byte("not audio at all"), 0o600)
			},
			Command: func(data test.Data, helpers test.Helpers) test.TestableCommand {
				return helpers.Command("convert", "-i", data.Temp().Path("in.txt"), "-o", data.Temp().Path("out.wav"))
			},
			Expected: test.Expects(expect.ExitCodeGenericFail, nil, nil),
		},
		{
			Description: "unknown mode",
			Setup: func(data test.Data, helpers test.Helpers) {
				writeTone(helpers, data.Temp().Path("in.wav"), 2, 512)
			},
			Command: func(data test.Data, helpers test.Helpers) test.TestableCommand {
				return helpers.Command("convert", "-i", data.Temp().Path("in.wav"),
					"-o", data.Temp().Path("out.wav"), "--mode", "sideways")
			},
			Expected: test.Expects(expect.ExitCodeGenericFail, nil, nil),
		},
	}

	testCase.Run(t)
}

func convertCase(mode string) *test.Case {
	return &test.Case{
		Description: "5.1 to stereo, " + mode,
		Setup: func(data test.Data, helpers test.Helpers) {
			writeTone(helpers, data.Temp().Path("in.wav"), 6, 4000)
		},
		Command: func(data test.Data, helpers test.Helpers) test.TestableCommand {
			return helpers.Command("convert",
				"-i", data.Temp().Path("in.wav"),
				"-o", data.Temp().Path(mode+".wav"),
				"--out-layout", "2",
				"--mode", mode)
		},
		Expected: func(data test.Data, _ test.Helpers) *test.Expected {
			return &test.Expected{
				ExitCode: expect.ExitCodeSuccess,
				Output: func(_ string, t tig.T) {
					t.Helper()

					out, format, ok := readWAV(t, data.Temp().Path(mode+".wav"))
					if !ok {
						return
					}

					if format.Channels != 2 || out.Frames() != 4000 || format.BitDepth != mpegh3da.Depth24 {
						t.Log("unexpected output format")
						t.Fail()

						return
					}

					if energy(out[0]) == 0 || energy(out[1]) == 0 {
						t.Log("silent output channel")
						t.Fail()
					}
				},
			}
		},
	}
}

func TestRender(t *testing.T) {
	testCase := testutils.Setup()

	testCase.Setup = func(data test.Data, helpers test.Helpers) {
		writeTone(helpers, data.Temp().Path("object.wav"), 1, 3000)
	}

	testCase.Command = func(data test.Data, helpers test.Helpers) test.TestableCommand {
		return helpers.Command("render",
			"-i", data.Temp().Path("object.wav"),
			"-o", data.Temp().Path("out.wav"),
			"--out-layout", "2",
			"--az", "30")
	}

	testCase.Expected = func(data test.Data, _ test.Helpers) *test.Expected {
		return &test.Expected{
			ExitCode: expect.ExitCodeSuccess,
			Output: func(_ string, t tig.T) {
				t.Helper()

				out, _, ok := readWAV(t, data.Temp().Path("out.wav"))
				if !ok {
					return
				}

				if len(out) != 2 || out.Frames() != 3000 {
					t.Log("unexpected output shape")
					t.Fail()

					return
				}

				// An object on the left loudspeaker leaves the right one silent.
				if energy(out[0]) == 0 || energy(out[1]) > 0.01*energy(out[0]) {
					t.Log("object not panned to the left loudspeaker")
					t.Fail()
				}
			},
		}
	}

	testCase.Run(t)
}

func TestRenderSuperset(t *testing.T) {
	testCase := testutils.Setup()

	testCase.Setup = func(data test.Data, helpers test.Helpers) {
		writeTone(helpers, data.Temp().Path("object.wav"), 1, 3000)
	}

	testCase.Command = func(data test.Data, helpers test.Helpers) test.TestableCommand {
		return helpers.Command("render",
			"-i", data.Temp().Path("object.wav"),
			"-o", data.Temp().Path("out.wav"),
			"--out-layout", "2",
			"--superset",
			"--az", "110")
	}

	testCase.Expected = func(data test.Data, _ test.Helpers) *test.Expected {
		return &test.Expected{
			ExitCode: expect.ExitCodeSuccess,
			Output: func(_ string, t tig.T) {
				t.Helper()

				out, _, ok := readWAV(t, data.Temp().Path("out.wav"))
				if !ok {
					return
				}

				// A left-surround object folds onto the left loudspeaker only.
				if len(out) != 2 || energy(out[0]) == 0 || energy(out[1]) > 0.01*energy(out[0]) {
					t.Log("superset object not folded to the left loudspeaker")
					t.Fail()
				}
			},
		}
	}

	testCase.Run(t)
}

func TestPreviewDryRun(t *testing.T) {
	testCase := testutils.Setup()

	testCase.Setup = func(data test.Data, helpers test.Helpers) {
		writeTone(helpers, data.Temp().Path("in.wav"), 8, 4800)
	}

	testCase.Command = func(data test.Data, helpers test.Helpers) test.TestableCommand {
		return helpers.Command("preview", "-i", data.Temp().Path("in.wav"), "--dry-run")
	}

	testCase.Expected = test.Expects(expect.ExitCodeSuccess, nil, expect.Contains("4800 frames", "0.10s"))

	testCase.Run(t)
}
