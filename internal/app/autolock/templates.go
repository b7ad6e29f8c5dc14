package autolock

import "text/template"

var autolockTmpl = template.Must(template.New("autolock").Parse(`#!/bin/bash
# Generated by sidekick. Changes are overwritten when settings are applied.
# Widget: {{.Widget}} ({{.Rule}})
{{- if .Warning}}
# Warning: {{.Warning}}
{{- end}}
{{if .Disabled -}}
# Screensaver disabled, nothing to launch.
exit 0
{{else -}}
export DISPLAY={{.Display}}
export WAYLAND_DISPLAY={{.Wayland}}

cd {{.BinDir}} || exit 1
nohup {{.Command}} >/dev/null 2>&1 &
echo $! > {{.PIDFile}}
{{end -}}
`))

var idleTmpl = template.Must(template.New("idle").Parse(`#!/bin/bash
# Generated by sidekick. Changes are overwritten when settings are applied.
# Target: {{.Target}}
# Timeline:
{{- if .LockTimeout}}
#   {{.LockTimeout}}s: start the screensaver
{{- end}}
{{- if .DisplayTimeout}}
#   {{.DisplayTimeout}}s: screen off
{{- end}}
{{- if .DisplayShutdown}}
#   {{.DisplayShutdown}}s: displays shut down
{{- end}}
{{- if .Shutdown}}
#   {{.Shutdown}}s: power off
{{- end}}

exec swayidle -w \
{{- if .LockTimeout}}
    timeout {{.LockTimeout}} {{.Launch}} \
{{- end}}
{{- if .DisplayTimeout}}
    timeout {{.DisplayTimeout}} {{.Off}} \
{{- end}}
{{- if .DisplayShutdown}}
    timeout {{.DisplayShutdown}} {{.Off}} \
{{- end}}
{{- if .Shutdown}}
    timeout {{.Shutdown}} {{.Poweroff}} \
{{- end}}
    resume {{.On}} \
    before-sleep {{.Off}}
`))

type autolockData struct {
	Widget   string
	Rule     string
	Warning  string
	Disabled bool
	Display  string
	Wayland  string
	BinDir   string
	Command  string
	PIDFile  string
}

type idleData struct {
	Target          string
	LockTimeout     int
	DisplayTimeout  int
	DisplayShutdown int
	Shutdown        int
	Launch          string
	On              string
	Off             string
	Poweroff        string
}
