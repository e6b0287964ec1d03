package main

import (
	"fmt"
	"strings"
	"time"

	v1 "github.com/noriskclient/launcherd/pkg/api/v1"
)

func printLaunches(launches []v1.ProcessMetadata) {
	if len(launches) == 0 {
		fmt.Println("No launches in progress.")
		return
	}

	profileW, stateW := len("PROFILE"), len("STATE")
	for _, l := range launches {
		profileW = maxInt(profileW, len(l.ProfileID))
		stateW = maxInt(stateW, len(l.State))
	}
	idW, pidW, startW := 36, 7, len(time.RFC3339)

	sep := fmt.Sprintf("+-%s-+-%s-+-%s-+-%s-+-%s-+\n",
		strings.Repeat("-", idW), strings.Repeat("-", profileW), strings.Repeat("-", stateW),
		strings.Repeat("-", pidW), strings.Repeat("-", startW))
	fmt.Print(sep)
	fmt.Printf("| %s | %s | %s | %s | %s |\n",
		pad("ID", idW), pad("PROFILE", profileW), pad("STATE", stateW), pad("PID", pidW), pad("STARTED", startW))
	fmt.Print(sep)
	for _, l := range launches {
		pid := "-"
		if l.PID > 0 {
			pid = fmt.Sprint(l.PID)
		}
		fmt.Printf("| %s | %s | %s | %s | %s |\n",
			pad(l.ID, idW), pad(l.ProfileID, profileW), pad(string(l.State), stateW),
			pad(pid, pidW), pad(l.StartTime.Local().Format(time.RFC3339), startW))
	}
	fmt.Print(sep)
}

func formatEvent(p v1.EventPayload) string {
	var b strings.Builder
	fmt.Fprintf(&b, "[%s] %s", p.Target(), p.EventType)
	if p.Progress != nil {
		fmt.Fprintf(&b, " %5.1f%%", *p.Progress)
	}
	if p.Message != "" {
		fmt.Fprintf(&b, " %s", p.Message)
	}
	if p.Error != nil {
		fmt.Fprintf(&b, " error=%q", *p.Error)
	}
	return b.String()
}

func printEvent(p v1.EventPayload) {
	fmt.Println(formatEvent(p))
}

func pad(s string, w int) string {
	if len(s) >= w {
		return s
	}
	return s + strings.Repeat(" ", w-len(s))
}

func maxInt(a, b int) int {
	if a > b {
		return a
	}
	return b
}
