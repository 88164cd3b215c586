package chatsession

import "testing"

func TestSanitize(t *testing.T) {
	cases := []struct {
		name string
		in   string
		want string
	}{
		{"plain text untouched", "nothing to strip here", "nothing to strip here"},
		{"pictograph stripped", "done \U0001F389 deploying", "done  deploying"},
		{"dingbat stripped", "✅ all tests pass", " all tests pass"},
		{"zwj sequence stripped", "\U0001F469‍\U0001F4BB writes code", " writes code"},
		{"variation selector stripped", "warning ⚠️ ahead", "warning  ahead"},
		{"unicode prose kept", "naïve café — über", "naïve café — über"},
		{"empty", "", ""},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			if got := Sanitize(tc.in); got != tc.want {
				t.Errorf("Sanitize(%q) = %q, want %q", tc.in, got, tc.want)
			}
		})
	}
}

func TestSaveStatePersistsSessionState(t *testing.T) {
	store := NewStore(t.TempDir())
	sess, err := store.New()
	if err != nil {
		t.Fatalf("store.New: %v", err)
	}
	sess.Style = "concise"
	sess.CurrentFile = "main.go"
	sess.ContextFiles = []string{"README.md", "go.mod"}
	sess.Todos = []TodoItem{{Text: "refactor pager"}, {Text: "ship it", Done: true}}

	if err := store.SaveState(sess); err != nil {
		t.Fatalf("SaveState: %v", err)
	}

	sess.Close()
	loaded, err := store.Load(sess.ID)
	if err != nil {
		t.Fatalf("Load: %v", err)
	}
	defer loaded.Close()
	if loaded.Style != "concise" || loaded.CurrentFile != "main.go" {
		t.Errorf("state = %q/%q, want concise/main.go", loaded.Style, loaded.CurrentFile)
	}
	if len(loaded.ContextFiles) != 2 || len(loaded.Todos) != 2 {
		t.Errorf("ContextFiles=%d Todos=%d, want 2/2", len(loaded.ContextFiles), len(loaded.Todos))
	}
	if !loaded.Todos[1].Done {
		t.Error("second todo should stay done")
	}
	if len(loaded.Messages) != 0 {
		t.Errorf("SaveState must not add messages, got %d", len(loaded.Messages))
	}
}
