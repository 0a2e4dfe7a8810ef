//go:build js && wasm

package main

import (
	"context"
	"encoding/json"
	"io"
	"strings"
	"syscall/js"

	"github.com/pkg/errors"
	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"

	"github.com/stateful/mdpane/internal/bridge"
	"github.com/stateful/mdpane/internal/host"
	"github.com/stateful/mdpane/internal/preview"
	"github.com/stateful/mdpane/internal/session"
	"github.com/stateful/mdpane/internal/version"
)

const (
	editorElementID   = "editor"
	previewElementID  = "preview"
	basePathAttribute = "data-base-path"
)

func main() {
	console := consoleWriter{console: js.Global().Get("console")}
	logger := bridge.NewDiagnosticLogger(console).WithOptions(zap.IncreaseLevel(zapcore.WarnLevel))
	transport := newWebViewTransport(logger, console)
	document := js.Global().Get("document")

	sessions := newSessions(logger, transport, initialBasePath(document))
	dispatcher := host.NewDispatcher(sessions, logger)

	register(js.Global(), dispatcher, sessions.Default())
	listen(document, sessions.Default())

	_ = transport.Post(bridge.NewReady(sessions.Default().ID, version.BaseVersion()))

	select {}
}

func newSessions(logger *zap.Logger, transport bridge.Transport, basePath string) *session.List {
	return session.NewList(
		logger,
		session.WithBasePath(basePath),
		session.WithBridge(bridge.New(transport, logger)),
		session.WithRenderer(preview.NewRenderer(preview.WithLogger(logger))),
	)
}

// initialBasePath reads the base path the page declares on the editor
// element, for example <textarea id="editor" data-base-path="C:\docs">.
func initialBasePath(document js.Value) string {
	editor := document.Call("getElementById", editorElementID)
	if !editor.Truthy() {
		return ""
	}
	v := editor.Call("getAttribute", basePathAttribute)
	if v.Type() != js.TypeString {
		return ""
	}
	return v.String()
}

// consoleWriter writes each log entry with console.log.
type consoleWriter struct {
	console js.Value
}

func (w consoleWriter) Write(p []byte) (int, error) {
	w.console.Call("log", strings.TrimSuffix(string(p), "\n"))
	return len(p), nil
}

// register exposes every dispatcher method as a page function taking an
// optional string argument.
func register(global js.Value, d *host.Dispatcher, s *session.Session) {
	for _, name := range d.Methods() {
		global.Set(name, js.FuncOf(func(this js.Value, args []js.Value) any {
			var params string
			if len(args) > 0 && args[0].Type() == js.TypeString {
				params = args[0].String()
			}

			result, err := d.Call(context.Background(), host.Request{Method: name, Params: params})
			if err != nil {
				return toJSError(err)
			}

			refreshPreview(s)

			return toJSValue(result)
		}))
	}
}

// listen forwards unhandled key presses to the host and keeps the buffer
// in sync with the editor element.
func listen(document js.Value, s *session.Session) {
	document.Call("addEventListener", "keydown", js.FuncOf(func(this js.Value, args []js.Value) any {
		ev := args[0]
		if ev.Get("defaultPrevented").Bool() {
			return nil
		}
		s.KeyDown(bridge.KeyEvent{
			AltKey:   ev.Get("altKey").Bool(),
			CtrlKey:  ev.Get("ctrlKey").Bool(),
			ShiftKey: ev.Get("shiftKey").Bool(),
			Code:     ev.Get("code").String(),
			Key:      ev.Get("key").String(),
		})
		return nil
	}))

	editor := document.Call("getElementById", editorElementID)
	if !editor.Truthy() {
		return
	}
	editor.Call("addEventListener", "input", js.FuncOf(func(this js.Value, args []js.Value) any {
		s.SetMarkdown(editor.Get("value").String())
		refreshPreview(s)
		return nil
	}))
}

func refreshPreview(s *session.Session) {
	el := js.Global().Get("document").Call("getElementById", previewElementID)
	if !el.Truthy() {
		return
	}
	html, err := s.Preview()
	if err != nil {
		return
	}
	el.Set("innerHTML", html)
}

// webViewTransport posts to window.chrome.webview when the page is hosted
// in a WebView2 control and logs otherwise.
type webViewTransport struct {
	webview  js.Value
	fallback *bridge.LogTransport
}

func newWebViewTransport(logger *zap.Logger, out io.Writer) *webViewTransport {
	var webview js.Value
	if chrome := js.Global().Get("chrome"); chrome.Truthy() {
		webview = chrome.Get("webview")
	}
	return &webViewTransport{
		webview:  webview,
		fallback: bridge.NewLogTransport(logger, bridge.WithDiagnosticOutput(out)),
	}
}

func (t *webViewTransport) Post(msg bridge.Message) error {
	if !t.Connected() {
		return t.fallback.Post(msg)
	}
	data, err := json.Marshal(msg)
	if err != nil {
		return errors.WithStack(err)
	}
	t.webview.Call("postMessage", js.Global().Get("JSON").Call("parse", string(data)))
	return nil
}

func (t *webViewTransport) Connected() bool {
	return t.webview.Truthy()
}

func toJSValue(v any) js.Value {
	if v == nil {
		return js.Undefined()
	}
	data, err := json.Marshal(v)
	if err != nil {
		return toJSError(err)
	}
	return js.Global().Get("JSON").Call("parse", string(data))
}

func toJSError(err error) js.Value {
	if err == nil {
		return js.Null()
	}
	return js.Global().Get("Error").New(err.Error())
}
