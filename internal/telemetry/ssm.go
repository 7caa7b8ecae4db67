package telemetry

import (
	"context"
	"fmt"
	"regexp"
	"strconv"
	"strings"
	"time"

	"github.com/aws/aws-sdk-go-v2/aws"
	"github.com/aws/aws-sdk-go-v2/service/ssm"
	"github.com/aws/aws-sdk-go-v2/service/ssm/types"
)

// SSMAPI is the subset of the Systems Manager client the provider needs.
type SSMAPI interface {
	SendCommand(ctx context.Context, params *ssm.SendCommandInput, optFns ...func(*ssm.Options)) (*ssm.SendCommandOutput, error)
	GetCommandInvocation(ctx context.Context, params *ssm.GetCommandInvocationInput, optFns ...func(*ssm.Options)) (*ssm.GetCommandInvocationOutput, error)
}

// Common stratum ports used by public mining pools.
var miningPoolPorts = map[int]bool{
	3333: true, 4444: true, 5555: true, 7777: true,
	9999: true, 14433: true, 14444: true, 45700: true,
}

var minerCmdMarkers = []string{"stratum+tcp", "stratum+ssl", "xmrig", "cpuminer", "--donate-level"}

// Processes running this long while busy count as sustained background load.
const (
	backgroundMinSeconds = 600
	backgroundMinCPU     = 10
)

var processNamePattern = regexp.MustCompile(`^[A-Za-z0-9._:/@+-]+$`)

// SSMProvider inspects a process on an EC2 instance through AWS Systems
// Manager. The package name is treated as a process name pattern.
type SSMProvider struct {
	API          SSMAPI
	InstanceID   string
	PollInterval time.Duration
	Timeout      time.Duration
}

func NewSSMProvider(api SSMAPI, instanceID string) *SSMProvider {
	return &SSMProvider{
		API:          api,
		InstanceID:   instanceID,
		PollInterval: 800 * time.Millisecond,
		Timeout:      15 * time.Second,
	}
}

func (p *SSMProvider) Facts(ctx context.Context, packageName string) (Facts, error) {
	if !processNamePattern.MatchString(packageName) {
		return Facts{}, unavailable(packageName, "not a valid process name")
	}

	out, err := p.API.SendCommand(ctx, &ssm.SendCommandInput{
		InstanceIds:  []string{p.InstanceID},
		DocumentName: aws.String("AWS-RunShellScript"),
		Parameters: map[string][]string{
			"commands": {processScript(packageName)},
		},
	})
	if err != nil {
		return Facts{}, unavailable(packageName, "failed to send SSM command: %v", err)
	}
	if out.Command == nil || out.Command.CommandId == nil {
		return Facts{}, unavailable(packageName, "ssm SendCommand returned empty command id")
	}

	stdout, status, err := p.waitCommandOutput(ctx, *out.Command.CommandId)
	if err != nil {
		return Facts{}, unavailable(packageName, "%v", err)
	}
	if status != types.CommandInvocationStatusSuccess {
		return Facts{}, unavailable(packageName, "ssm invocation finished with status %s", status)
	}

	report := ParseProcessReport(stdout)
	if len(report.Processes) == 0 {
		return Facts{}, unavailable(packageName, "no matching process on %s", p.InstanceID)
	}
	return report.Facts(packageName), nil
}

func processScript(name string) string {
	return `
	name='` + name + `'
	for pid in $(pgrep -f "$name"); do
		[ "$pid" = "$$" ] && continue
		cmdline=$(cat /proc/$pid/cmdline 2>/dev/null | tr '\0' ' ')
		case "$cmdline" in *pgrep*|*ssm-agent*|"") continue ;; esac
		stats=$(ps -o %cpu=,rss=,etimes= -p $pid | xargs)
		echo "PROC|$pid|$stats|$cmdline"
		ss -tnpH state established 2>/dev/null | grep "pid=$pid," | awk -v pid=$pid '{print "CONN|" pid "|" $4}'
	done
	`
}

func (p *SSMProvider) waitCommandOutput(ctx context.Context, commandID string) (string, types.CommandInvocationStatus, error) {
	deadline := time.Now().Add(p.Timeout)

	for {
		if time.Now().After(deadline) {
			return "", types.CommandInvocationStatusTimedOut, fmt.Errorf("ssm invocation timed out for %s", p.InstanceID)
		}

		res, err := p.API.GetCommandInvocation(ctx, &ssm.GetCommandInvocationInput{
			CommandId:  aws.String(commandID),
			InstanceId: aws.String(p.InstanceID),
			PluginName: aws.String("aws:runShellScript"),
		})
		if err == nil {
			switch res.Status {
			case types.CommandInvocationStatusPending,
				types.CommandInvocationStatusInProgress,
				types.CommandInvocationStatusDelayed:
			default:
				return aws.ToString(res.StandardOutputContent), res.Status, nil
			}
		}

		select {
		case <-ctx.Done():
			return "", types.CommandInvocationStatusCancelled, ctx.Err()
		case <-time.After(p.PollInterval):
		}
	}
}

type ProcessSample struct {
	PID            int
	CPUPercent     float64
	RSSKB          int64
	ElapsedSeconds int64
	Cmdline        string
}

// ProcessReport is the parsed output of the inspection script.
type ProcessReport struct {
	Processes []ProcessSample
	Peers     []string
}

func ParseProcessReport(stdout string) ProcessReport {
	var report ProcessReport

	for _, line := range strings.Split(stdout, "\n") {
		line = strings.TrimSpace(line)
		switch {
		case strings.HasPrefix(line, "PROC|"):
			parts := strings.SplitN(line, "|", 4)
			if len(parts) != 4 {
				continue
			}
			pid, err := strconv.Atoi(parts[1])
			if err != nil {
				continue
			}
			fields := strings.Fields(parts[2])
			if len(fields) != 3 {
				continue
			}
			cpu, _ := strconv.ParseFloat(fields[0], 64)
			rss, _ := strconv.ParseInt(fields[1], 10, 64)
			elapsed, _ := strconv.ParseInt(fields[2], 10, 64)
			report.Processes = append(report.Processes, ProcessSample{
				PID:            pid,
				CPUPercent:     cpu,
				RSSKB:          rss,
				ElapsedSeconds: elapsed,
				Cmdline:        strings.TrimSpace(parts[3]),
			})
		case strings.HasPrefix(line, "CONN|"):
			parts := strings.SplitN(line, "|", 3)
			if len(parts) == 3 && parts[2] != "" {
				report.Peers = append(report.Peers, parts[2])
			}
		}
	}

	return report
}

// Facts folds every matched process into one set of package facts.
func (r ProcessReport) Facts(packageName string) Facts {
	f := Facts{AppName: packageName, NetworkConnections: len(r.Peers)}

	names := []string{packageName}
	var longest int64
	for _, proc := range r.Processes {
		f.CPUUsagePercent += proc.CPUPercent
		f.MemoryUsageKB += proc.RSSKB
		if proc.ElapsedSeconds > longest {
			longest = proc.ElapsedSeconds
		}
		names = append(names, proc.Cmdline)
	}

	for _, peer := range r.Peers {
		if miningPoolPorts[peerPort(peer)] {
			f.NetworkPatternSignal = true
			break
		}
	}

	f.CryptoSignal = HasCryptoKeyword(names...)
	f.MiningSignal = HasMiningCharacteristics(packageName, "") || f.CryptoSignal || containsAny(names, minerCmdMarkers)
	f.BackgroundSignal = longest >= backgroundMinSeconds && f.CPUUsagePercent > backgroundMinCPU
	return f
}

func peerPort(peer string) int {
	i := strings.LastIndex(peer, ":")
	if i < 0 {
		return 0
	}
	port, err := strconv.Atoi(peer[i+1:])
	if err != nil {
		return 0
	}
	return port
}
