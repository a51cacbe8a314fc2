package handlers

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func testSummary() *launchSummary {
	return &launchSummary{
		ClusterName:    "my-cluster",
		NodeName:       "onprem-cluster-a1b2c3",
		HeadAddress:    "203.0.113.10",
		User:           "test",
		PrivateKeyPath: "/home/me/.ssh/sky-key",
		DescriptorPath: "/home/me/.onpremctl/local/my-cluster.yml",
	}
}

func TestLaunchSummary_Command(t *testing.T) {
	t.Parallel()
	assert.Equal(t, "ssh -i /home/me/.ssh/sky-key test@203.0.113.10 -- [CMD]", testSummary().Command())
}

func TestRenderSummary(t *testing.T) {
	t.Parallel()

	for _, styled := range []bool{false, true} {
		out := renderSummary(testSummary(), styled)
		assert.Contains(t, out, "my-cluster is now ready for use!")
		assert.Contains(t, out, "onpremctl/local/my-cluster.yml")
		assert.Contains(t, out, "test@203.0.113.10")
		assert.Contains(t, out, "onprem-cluster-a1b2c3")
	}
}

func TestRenderSummary_PlainHasNoEscapes(t *testing.T) {
	t.Parallel()
	assert.NotContains(t, renderSummary(testSummary(), false), "\x1b[")
}

func TestRenderCleanupHint(t *testing.T) {
	t.Parallel()
	out := renderCleanupHint("onprem-cluster-a1b2c3", "hcloud")
	assert.Contains(t, out, "Node onprem-cluster-a1b2c3 may still be running on hcloud")
	assert.Contains(t, out, "--strict")
}
