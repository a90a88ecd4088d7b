package dcdiag

import (
	"testing"
)

func TestParse_WellFormedPair(t *testing.T) {
	output := "   Starting test: Connectivity\n" +
		"      ......................... DC01 passed test Connectivity\n"

	verdicts := Parse(output)
	if verdicts["Connectivity"] != Passed {
		t.Errorf("Connectivity = %q, want %q", verdicts["Connectivity"], Passed)
	}
}

func TestParse_FailedTest(t *testing.T) {
	output := "   Starting test: Advertising\n" +
		"      ......................... DC01 failed test Advertising\n"

	verdicts := Parse(output)
	if verdicts["Advertising"] != Failed {
		t.Errorf("Advertising = %q, want %q", verdicts["Advertising"], Failed)
	}
}

func TestParse_ResultLinesNotAdjacent(t *testing.T) {
	// The result line may arrive several lines after the start line.
	output := "   Starting test: Replications\n" +
		"      Replication latency details follow\n" +
		"      ......................... FOO passed test Replications\n"

	verdicts := Parse(output)
	if verdicts["Replications"] != Passed {
		t.Errorf("Replications = %q, want %q", verdicts["Replications"], Passed)
	}
}

func TestParse_MultipleTests(t *testing.T) {
	output := "   Starting test: Connectivity\n" +
		"      ......................... DC01 passed test Connectivity\n" +
		"   Starting test: Services\n" +
		"      The service NTDS is not running\n" +
		"      ......................... DC01 failed test Services\n" +
		"   Starting test: FsmoCheck\n" +
		"      ......................... corp.example.com passed test FsmoCheck\n"

	verdicts := Parse(output)
	want := map[string]Verdict{
		"Connectivity": Passed,
		"Services":     Failed,
		"FsmoCheck":    Passed,
	}
	for name, v := range want {
		if verdicts[name] != v {
			t.Errorf("%s = %q, want %q", name, verdicts[name], v)
		}
	}
	if len(verdicts) != 3 {
		t.Errorf("len(verdicts) = %d, want 3", len(verdicts))
	}
}

func TestParse_DanglingStartEmitsNothing(t *testing.T) {
	output := "   Starting test: Connectivity\n" +
		"      some detail line\n"

	verdicts := Parse(output)
	if _, ok := verdicts["Connectivity"]; ok {
		t.Error("dangling start line should not emit an entry")
	}
	if len(verdicts) != 0 {
		t.Errorf("len(verdicts) = %d, want 0", len(verdicts))
	}
}

func TestParse_LastWriteWins(t *testing.T) {
	output := "   Starting test: Replications\n" +
		"      ......................... DC01 failed test Replications\n" +
		"   Starting test: Replications\n" +
		"      ......................... DC01 passed test Replications\n"

	verdicts := Parse(output)
	if verdicts["Replications"] != Passed {
		t.Errorf("Replications = %q, want later entry %q", verdicts["Replications"], Passed)
	}
}

func TestParse_UnmatchedLinesIgnored(t *testing.T) {
	output := "Directory Server Diagnosis\n" +
		"Performing initial setup:\n" +
		"   Trying to find home server...\n"

	verdicts := Parse(output)
	if len(verdicts) != 0 {
		t.Errorf("len(verdicts) = %d, want 0", len(verdicts))
	}
}

func TestParse_NameTrimmed(t *testing.T) {
	output := "   Starting test:    Connectivity   \n" +
		"      ......................... DC01 passed test Connectivity\n"

	verdicts := Parse(output)
	if _, ok := verdicts["Connectivity"]; !ok {
		t.Errorf("trimmed name missing, got %v", verdicts)
	}
}

func TestParse_Empty(t *testing.T) {
	if got := Parse(""); len(got) != 0 {
		t.Errorf("Parse(\"\") = %v, want empty", got)
	}
}

func TestUnreachable_AllFailed(t *testing.T) {
	verdicts := Unreachable()
	if len(verdicts) != len(TestNames) {
		t.Fatalf("len(verdicts) = %d, want %d", len(verdicts), len(TestNames))
	}
	for _, name := range TestNames {
		if verdicts[name] != Failed {
			t.Errorf("%s = %q, want %q", name, verdicts[name], Failed)
		}
	}
}
