package vulkan

import (
	"errors"
	"testing"

	vk "github.com/goki/vulkan"
)

func TestVulkanResultString(t *testing.T) {
	cases := map[vk.Result]string{
		vk.Success:         "VK_SUCCESS",
		vk.Timeout:         "VK_TIMEOUT",
		vk.ErrorDeviceLost: "VK_ERROR_DEVICE_LOST",
		vk.Result(-12345):  "VkResult(-12345)",
	}
	for res, want := range cases {
		if got := VulkanResultString(res); got != want {
			t.Errorf("VulkanResultString(%d) = %q, want %q", res, got, want)
		}
	}
}

func TestVulkanResultIsSuccess(t *testing.T) {
	if !VulkanResultIsSuccess(vk.Timeout) {
		t.Error("timeout is a success code")
	}
	if VulkanResultIsSuccess(vk.ErrorOutOfHostMemory) {
		t.Error("out of host memory is an error code")
	}
}

func TestResultErrorUnwrapsWithAs(t *testing.T) {
	err := resultError("queue submit", vk.ErrorDeviceLost)
	var re *ResultError
	if !errors.As(err, &re) || re.Result != vk.ErrorDeviceLost {
		t.Fatalf("errors.As failed for %v", err)
	}
}

func TestVulkanSafeString(t *testing.T) {
	if got := VulkanSafeString(""); got != "\x00" {
		t.Errorf("empty string = %q", got)
	}
	if got := VulkanSafeString("app"); got != "app\x00" {
		t.Errorf("got %q", got)
	}
	if got := VulkanSafeString("app\x00"); got != "app\x00" {
		t.Errorf("terminated string changed to %q", got)
	}
}

func TestFindFirstZeroInByteArray(t *testing.T) {
	if got := FindFirstZeroInByteArray([]byte{'g', 'p', 'u', 0, 0}); got != 3 {
		t.Errorf("got %d, want 3", got)
	}
	if got := FindFirstZeroInByteArray([]byte{'g', 'p', 'u'}); got != 3 {
		t.Errorf("unterminated array: got %d, want 3", got)
	}
}

func TestLockPoolCreatesQueueLocksOnDemand(t *testing.T) {
	pool := NewVulkanLockPool()
	calls := 0
	if err := pool.SafeQueueCall(7, func() error { calls++; return nil }); err != nil {
		t.Fatal(err)
	}
	want := errors.New("boom")
	if err := pool.SafeCall(DeviceManagement, func() error { calls++; return want }); !errors.Is(err, want) {
		t.Fatalf("SafeCall error = %v", err)
	}
	if calls != 2 {
		t.Fatalf("calls = %d, want 2", calls)
	}
}
