package service

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/noah-isme/cbdms-web/internal/models"
)

func TestNotificationServiceQueuesFlashWithoutSubscribers(t *testing.T) {
	svc := NewNotificationService(nil)
	svc.Channel("ws1").Notify(models.NotificationSuccess, "Saved")
	svc.Notify("ws2", models.NotificationError, "Other")

	flash := svc.Drain("ws1")
	require.Len(t, flash, 1)
	assert.Equal(t, "Saved", flash[0].Message)
	assert.Equal(t, models.NotificationSuccess, flash[0].Level)
	assert.NotEmpty(t, flash[0].ID)
	assert.Empty(t, svc.Drain("ws1"))
	assert.Len(t, svc.Drain("ws2"), 1)
}

func TestNotificationServiceFlashLimit(t *testing.T) {
	svc := NewNotificationService(nil)
	svc.limit = 2
	svc.Notify("ws", models.NotificationSuccess, "a")
	svc.Notify("ws", models.NotificationSuccess, "b")
	svc.Notify("ws", models.NotificationSuccess, "c")

	flash := svc.Drain("ws")
	require.Len(t, flash, 2)
	assert.Equal(t, "b", flash[0].Message)
	assert.Equal(t, "c", flash[1].Message)
}

func TestNotificationServiceDeliversToSubscribers(t *testing.T) {
	svc := NewNotificationService(nil)
	ch, cancel := svc.Subscribe("ws")
	defer cancel()

	svc.Notify("ws", models.NotificationError, "Operation failed.")

	select {
	case n := <-ch:
		assert.Equal(t, "Operation failed.", n.Message)
	case <-time.After(time.Second):
		t.Fatal("notification not delivered")
	}
	assert.Empty(t, svc.Drain("ws"), "live delivery must not queue flash")
}

func TestNotificationServiceCancelAndDrop(t *testing.T) {
	svc := NewNotificationService(nil)
	ch, cancel := svc.Subscribe("ws")
	cancel()
	cancel()
	_, open := <-ch
	assert.False(t, open)

	svc.Notify("ws", models.NotificationSuccess, "queued")
	ch2, cancel2 := svc.Subscribe("ws")
	defer cancel2()
	svc.Drop("ws")
	_, open = <-ch2
	assert.False(t, open)
	assert.Empty(t, svc.Drain("ws"))
}
