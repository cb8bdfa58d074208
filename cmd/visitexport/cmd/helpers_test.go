package cmd

import (
	"fmt"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/require"
)

const testVisits = `[
  {"id": 1, "created_at": "2024-03-01T09:30:00Z", "user": "Ana", "shop": "Corner Shop",
   "notes": "Fine", "status": "completed",
   "responses": {"shelfCount": 4, "storeName": "Kiosk", "details": {"aisle": "B"}}},
  {"id": 2, "created_at": "2024-03-02T10:00:00Z", "user": {"name": "Ben"}, "shop": "Corner Shop",
   "responses": {"storeName": "He said \"hi\"", "photo": "a.jpg"}}
]`

// testEnv is a file-driver configuration in a temporary directory.
type testEnv struct {
	Dir        string
	ConfigFile string
	OutputDir  string
}

func newTestEnv(t *testing.T, extra string) *testEnv {
	t.Helper()
	dir := t.TempDir()
	env := &testEnv{
		Dir:        dir,
		ConfigFile: filepath.Join(dir, "visitexport.yaml"),
		OutputDir:  filepath.Join(dir, "out"),
	}

	visitsPath := filepath.Join(dir, "visits.json")
	require.NoError(t, os.WriteFile(visitsPath, []byte(testVisits), 0644))

	content := fmt.Sprintf(`source:
  driver: file
  path: %s
output:
  dir: %s
  filename_style: visits
logging:
  level: error
%s`, visitsPath, env.OutputDir, extra)
	require.NoError(t, os.WriteFile(env.ConfigFile, []byte(content), 0644))

	useFlags(t, env.ConfigFile)
	return env
}

// useFlags points the CLI at configFile and resets every flag variable when
// the test ends.
func useFlags(t *testing.T, configFile string) {
	t.Helper()
	saved := struct {
		cfgFile, logLevel, logFormat, outputDir string
		maxDepth                                int
		noColor                                 bool
		exportName, exportEntity, exportWhere   string
		exportStyle                             string
		exportForce                             bool
		inspectID                               string
		columnsExport, columnsEntity            string
		columnsWhere                            string
	}{
		cfgFile, logLevel, logFormat, outputDir, maxDepth, noColor,
		exportName, exportEntity, exportWhere, exportStyle, exportForce,
		inspectID, columnsExport, columnsEntity, columnsWhere,
	}
	t.Cleanup(func() {
		cfgFile, logLevel, logFormat, outputDir = saved.cfgFile, saved.logLevel, saved.logFormat, saved.outputDir
		maxDepth, noColor = saved.maxDepth, saved.noColor
		exportName, exportEntity, exportWhere = saved.exportName, saved.exportEntity, saved.exportWhere
		exportStyle, exportForce = saved.exportStyle, saved.exportForce
		inspectID = saved.inspectID
		columnsExport, columnsEntity, columnsWhere = saved.columnsExport, saved.columnsEntity, saved.columnsWhere
	})
	cfgFile = configFile
}
