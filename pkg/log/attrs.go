package log

import "log/slog"

func FlowCode(code string) slog.Attr {
	return slog.String("flow_code", code)
}

func VersionCode(code string) slog.Attr {
	return slog.String("version_code", code)
}

func NodeID(id string) slog.Attr {
	return slog.String("node_id", id)
}

func NodeType(nodeType string) slog.Attr {
	return slog.String("node_type", nodeType)
}

func Error(err error) slog.Attr {
	msg := ""
	if err != nil {
		msg = err.Error()
	}

	return slog.String("error", msg)
}
