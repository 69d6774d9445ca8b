package web

import (
	"fmt"
	"html/template"
	"io"
	"time"

	"github.com/dustin/go-humanize"

	"github.com/sweeney/marker-interlock/internal/status"
)

var indexTmpl = template.Must(template.New("index").Funcs(template.FuncMap{
	"uptime": func(d time.Duration) string {
		d = d.Truncate(time.Second)
		days := int(d.Hours()) / 24
		h := int(d.Hours()) % 24
		m := int(d.Minutes()) % 60
		s := int(d.Seconds()) % 60
		if days > 0 {
			return fmt.Sprintf("%dd %dh %dm %ds", days, h, m, s)
		}
		if h > 0 {
			return fmt.Sprintf("%dh %dm %ds", h, m, s)
		}
		if m > 0 {
			return fmt.Sprintf("%dm %ds", m, s)
		}
		return fmt.Sprintf("%ds", s)
	},
	"ago": func(then, now time.Time) string {
		return humanize.RelTime(then, now, "ago", "from now")
	},
	"comma": func(n int) string {
		return humanize.Comma(int64(n))
	},
	"stateOrUnknown": func(s string) string {
		if s == "" {
			return "UNKNOWN"
		}
		return s
	},
}).Parse(indexHTML))

const indexHTML = `<!DOCTYPE html>
<html>
<head>
<meta charset="utf-8">
<meta name="viewport" content="width=device-width, initial-scale=1">
<meta http-equiv="refresh" content="5">
<title>Marker Interlock</title>
<style>
body { font-family: monospace; max-width: 600px; margin: 2em auto; padding: 0 1em; }
h1 { font-size: 1.4em; }
table { border-collapse: collapse; width: 100%; margin: 1em 0; }
td, th { text-align: left; padding: 4px 8px; border-bottom: 1px solid #ddd; }
th { width: 40%; }
.running { color: green; font-weight: bold; }
.stopped { color: red; font-weight: bold; }
.unknown { color: orange; }
.connected { color: green; }
.disconnected { color: red; }
</style>
</head>
<body>
<h1>Marker Interlock</h1>

<h2>State</h2>
<table>
{{- $state := stateOrUnknown (printf "%s" .State)}}
<tr><th>Robot</th><td id="state" class="{{if eq $state "RUNNING"}}running{{else if eq $state "STOPPED"}}stopped{{else}}unknown{{end}}">{{$state}}</td></tr>
<tr><th>Target marker</th><td>{{.Config.Target}}</td></tr>
<tr><th>Visible markers</th><td>{{if .LastMarkers}}{{range $i, $m := .LastMarkers}}{{if $i}}, {{end}}{{$m}}{{end}}{{else}}none{{end}}</td></tr>
<tr><th>Last command</th><td>{{if .LastCommand}}{{.LastCommand}} ({{ago .LastCommandAt .Now}}){{else}}none{{end}}</td></tr>
</table>

<h2>Counts</h2>
<table>
<tr><th>Cycles</th><td>{{comma .Counts.Cycles}}</td></tr>
<tr><th>Target seen</th><td>{{comma .Counts.TargetSeen}}</td></tr>
<tr><th>STOP sent</th><td>{{comma .Counts.Stops}}</td></tr>
<tr><th>CONTINUE sent</th><td>{{comma .Counts.Continues}}</td></tr>
<tr><th>Suppressed (cooldown)</th><td>{{comma .Counts.Suppressed}}</td></tr>
<tr><th>Send failures</th><td>{{comma .Counts.SendFailures}}</td></tr>
</table>

<h2>Connectivity</h2>
<table>
<tr><th>Serial</th><td>{{.Config.SerialPort}}</td></tr>
<tr><th>MQTT</th><td class="{{if .MQTTConnected}}connected{{else}}disconnected{{end}}">{{if .MQTTConnected}}connected{{else}}disconnected{{end}}</td></tr>
<tr><th>Broker</th><td>{{if .Config.Broker}}{{.Config.Broker}}{{else}}disabled{{end}}</td></tr>
</table>

<h2>System</h2>
<table>
<tr><th>Uptime</th><td>{{uptime .Uptime}}</td></tr>
<tr><th>Started</th><td>{{.StartTime.UTC.Format "2006-01-02T15:04:05Z"}}</td></tr>
<tr><th>Run</th><td>{{.Config.RunID}}</td></tr>
<tr><th>Camera</th><td>{{.Config.Camera}} ({{.Config.Dictionary}}, markers {{.Config.Markers}})</td></tr>
<tr><th>Cooldown</th><td>{{.Config.CooldownMs}}ms</td></tr>
<tr><th>Heartbeat</th><td>{{if eq .Config.HeartbeatMs 0}}disabled{{else}}{{.Config.HeartbeatMs}}ms{{end}}</td></tr>
<tr><th>HTTP</th><td>{{.Config.HTTPAddr}}</td></tr>
</table>

<p><a href="/index.json">JSON</a></p>
</body>
</html>
`

func renderHTML(w io.Writer, snap status.Snapshot) error {
	// Snapshot has Uptime() method but template needs a Duration field.
	data := struct {
		status.Snapshot
		Uptime time.Duration
	}{
		Snapshot: snap,
		Uptime:   snap.Uptime(),
	}
	return indexTmpl.Execute(w, data)
}
