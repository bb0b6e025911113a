package logging

import (
	"context"
)

const (
	EventIDKey     = "event_id"
	JournalFileKey = "journal_file"
	ServiceNameKey = "service_name"
)

func WithEventID(ctx context.Context, eventID string) context.Context {
	return context.WithValue(ctx, EventIDKey, eventID)
}

func WithJournalFile(ctx context.Context, file string) context.Context {
	return context.WithValue(ctx, JournalFileKey, file)
}

func WithServiceName(ctx context.Context, serviceName string) context.Context {
	return context.WithValue(ctx, ServiceNameKey, serviceName)
}

func GetEventID(ctx context.Context) string {
	if eventID, ok := ctx.Value(EventIDKey).(string); ok {
		return eventID
	}
	return ""
}

func GetJournalFile(ctx context.Context) string {
	if file, ok := ctx.Value(JournalFileKey).(string); ok {
		return file
	}
	return ""
}

func GetServiceName(ctx context.Context) string {
	if serviceName, ok := ctx.Value(ServiceNameKey).(string); ok {
		return serviceName
	}
	return ""
}

func GetLogFields(ctx context.Context) []interface{} {
	fields := make([]interface{}, 0, 6)

	if eventID := GetEventID(ctx); eventID != "" {
		fields = append(fields, "event_id", eventID)
	}

	if file := GetJournalFile(ctx); file != "" {
		fields = append(fields, "journal_file", file)
	}

	if serviceName := GetServiceName(ctx); serviceName != "" {
		fields = append(fields, "service_name", serviceName)
	}

	return fields
}
