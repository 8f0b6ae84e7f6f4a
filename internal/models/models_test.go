package models

import (
	"reflect"
	"strings"
	"testing"

	"gorm.io/datatypes"
)

// gormTag extracts the gorm tag from a struct field.
func gormTag(t *testing.T, typ reflect.Type, fieldName string) string {
	t.Helper()
	f, ok := typ.FieldByName(fieldName)
	if !ok {
		t.Fatalf("%s.%s: field not found", typ.Name(), fieldName)
	}
	return f.Tag.Get("gorm")
}

// assertGormTag checks that a struct field's gorm tag contains the expected value.
func assertGormTag(t *testing.T, typ reflect.Type, fieldName, expected string) {
	t.Helper()
	tag := gormTag(t, typ, fieldName)
	if !strings.Contains(tag, expected) {
		t.Errorf("%s.%s gorm tag = %q, want to contain %q", typ.Name(), fieldName, tag, expected)
	}
}

// assertFieldType checks that a struct field has the expected Go type.
func assertFieldType(t *testing.T, typ reflect.Type, fieldName, expectedType string) {
	t.Helper()
	f, ok := typ.FieldByName(fieldName)
	if !ok {
		t.Fatalf("%s.%s: field not found", typ.Name(), fieldName)
	}
	got := f.Type.String()
	if got != expectedType {
		t.Errorf("%s.%s type = %q, want %q", typ.Name(), fieldName, got, expectedType)
	}
}

func TestAccount_Fields(t *testing.T) {
	typ := reflect.TypeOf(Account{})

	assertGormTag(t, typ, "UserID", "primaryKey")
	assertGormTag(t, typ, "UserID", "size:64")
	assertGormTag(t, typ, "IsSubscribed", "default:false")
	assertGormTag(t, typ, "GenerationCount", "not null")
	assertGormTag(t, typ, "GenerationCount", "default:0")
	assertFieldType(t, typ, "GenerationCount", "int")
}

func TestChatSession_Fields(t *testing.T) {
	typ := reflect.TypeOf(ChatSession{})

	assertGormTag(t, typ, "ID", "primaryKey")
	assertGormTag(t, typ, "ID", "size:36")
	assertGormTag(t, typ, "UserID", "not null")
	assertGormTag(t, typ, "UserID", "index:idx_user_updated")
	assertGormTag(t, typ, "UpdatedAt", "index:idx_user_updated")
	assertGormTag(t, typ, "Messages", "foreignKey:SessionID")
	assertFieldType(t, typ, "Messages", "[]models.ChatMessage")
}

func TestChatMessage_Fields(t *testing.T) {
	typ := reflect.TypeOf(ChatMessage{})

	assertGormTag(t, typ, "ID", "primaryKey")
	assertGormTag(t, typ, "SessionID", "uniqueIndex:idx_session_seq,priority:1")
	assertGormTag(t, typ, "Sequence", "uniqueIndex:idx_session_seq,priority:2")
	assertGormTag(t, typ, "Sender", "size:16")
	assertGormTag(t, typ, "Kind", "default:conversation")
	assertGormTag(t, typ, "Content", "type:text")
	assertGormTag(t, typ, "Payload", "type:json")
	assertFieldType(t, typ, "Content", "*string")
	assertFieldType(t, typ, "Payload", "datatypes.JSON")
	assertGormTag(t, typ, "Session", "OnDelete:CASCADE")
	assertFieldType(t, typ, "Session", "*models.ChatSession")
}

func TestGenerationRecord_Fields(t *testing.T) {
	typ := reflect.TypeOf(GenerationRecord{})

	assertGormTag(t, typ, "ID", "primaryKey")
	assertGormTag(t, typ, "UserID", "index")
	assertGormTag(t, typ, "Title", "not null")
	assertGormTag(t, typ, "Overview", "type:text")
	assertGormTag(t, typ, "Rating", "size:16")
	assertGormTag(t, typ, "Ingredients", "type:json")
	assertGormTag(t, typ, "IngredientItems", "type:json")
	assertGormTag(t, typ, "CreatedAt", "index")
	assertFieldType(t, typ, "UserID", "*string")
	assertFieldType(t, typ, "Email", "*string")
}

func TestGenerationRecord_Outcome(t *testing.T) {
	tests := []struct {
		title string
		want  string
	}{
		{title: InvalidRequestTitle, want: OutcomeFailed},
		{title: "Classic Banana Bread", want: OutcomeSuccess},
		{title: "", want: OutcomeSuccess},
		{title: "recipe request invalid", want: OutcomeSuccess},
	}
	for _, tt := range tests {
		t.Run(tt.title, func(t *testing.T) {
			r := GenerationRecord{Title: tt.title}
			if got := r.Outcome(); got != tt.want {
				t.Errorf("Outcome() = %q, want %q", got, tt.want)
			}
		})
	}
}

func TestChatMessage_HasPayload(t *testing.T) {
	text := "hello"
	tests := []struct {
		name string
		msg  ChatMessage
		want bool
	}{
		{name: "content only", msg: ChatMessage{Content: &text}, want: false},
		{name: "json null", msg: ChatMessage{Payload: datatypes.JSON("null")}, want: false},
		{name: "payload", msg: ChatMessage{Payload: datatypes.JSON(`{"title":"x"}`)}, want: true},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := tt.msg.HasPayload(); got != tt.want {
				t.Errorf("HasPayload() = %v, want %v", got, tt.want)
			}
		})
	}
}
