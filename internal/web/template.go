package web

import (
	"html/template"
	"io"

	log "github.com/sirupsen/logrus"

	"github.com/Anticdope/cap-test-2/internal/status"
)

var indexTemplate = template.Must(template.New("index").Parse(`<!DOCTYPE html>
<html>
<head>
<meta charset="utf-8">
<meta http-equiv="refresh" content="2">
<title>touchlamp</title>
<style>
body { font-family: monospace; background: #111; color: #ddd; margin: 2em; }
h1 { font-size: 1.2em; }
table { border-collapse: collapse; }
td { padding: 0.2em 0.8em 0.2em 0; }
.on { color: #6f6; }
.off { color: #888; }
.warn { color: #fa3; }
</style>
</head>
<body>
<h1>touchlamp</h1>
<table>
<tr><td>Touch</td><td class="{{if .Touched}}on{{else}}off{{end}}">{{.S.Touch}}</td></tr>
<tr><td>Sequence</td><td class="{{if .S.SequenceActive}}on{{else}}off{{end}}">{{if .S.SequenceActive}}PLAYING{{else}}idle{{end}}</td></tr>
<tr><td>Filtered reading</td><td>{{.S.Filtered}}</td></tr>
<tr><td>Baseline</td><td>{{printf "%.1f" .S.Calibration.Baseline}}</td></tr>
<tr><td>Touch threshold</td><td>{{printf "%.1f" .S.Calibration.TouchThreshold}}</td></tr>
<tr><td>Release threshold</td><td>{{printf "%.1f" .S.Calibration.ReleaseThreshold}}</td></tr>
<tr><td>Calibrated</td><td class="{{if .S.Calibration.Calibrated}}on{{else}}warn{{end}}">{{.S.Calibration.Calibrated}}</td></tr>
<tr><td>Touches</td><td>{{.S.Counts.Touches}}</td></tr>
<tr><td>Releases</td><td>{{.S.Counts.Releases}}</td></tr>
<tr><td>Sequences</td><td>{{.S.Counts.Sequences}}</td></tr>
<tr><td>MQTT</td><td class="{{if .S.MQTT.Connected}}on{{else}}warn{{end}}">{{if .S.MQTT.Connected}}connected{{else}}disconnected{{end}} ({{.S.MQTT.Broker}})</td></tr>
<tr><td>Uptime</td><td>{{.S.UptimeSeconds}}s</td></tr>
<tr><td>Started</td><td>{{.S.StartTime}}</td></tr>
</table>
</body>
</html>
`))

type indexData struct {
	S       status.StatusJSON
	Touched bool
}

func renderHTML(w io.Writer, snap status.Snapshot) {
	data := indexData{
		S:       status.ToJSON(snap),
		Touched: snap.Touch == "TOUCHED",
	}
	if err := indexTemplate.Execute(w, data); err != nil {
		log.Warnf("web: render template: %v", err)
	}
}
