package state

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestObservable_SetNotifies(t *testing.T) {
	o := NewObservable(1)

	var got []int
	unsubscribe := o.Subscribe(func(v int) { got = append(got, v) })

	o.Set(2)
	o.Set(2)
	o.Set(3)
	assert.Equal(t, []int{2, 3}, got, "unchanged values do not notify")
	assert.Equal(t, 3, o.Get())

	unsubscribe()
	o.Set(4)
	assert.Equal(t, []int{2, 3}, got)
}

func TestObservable_SubscriptionOrder(t *testing.T) {
	o := NewObservable("")

	var order []string
	for _, name := range []string{"a", "b", "c"} {
		o.Subscribe(func(string) { order = append(order, name) })
	}
	o.Set("x")
	assert.Equal(t, []string{"a", "b", "c"}, order)
}

func TestObservable_SubscriberMaySet(t *testing.T) {
	o := NewObservable(0)
	o.Subscribe(func(v int) {
		if v < 3 {
			o.Set(v + 1)
		}
	})
	o.Set(1)
	assert.Equal(t, 3, o.Get())
}

func TestApp(t *testing.T) {
	app := NewApp(false, "01")

	var themes []bool
	app.Dark.Subscribe(func(d bool) { themes = append(themes, d) })

	app.ToggleTheme()
	app.ToggleTheme()
	assert.Equal(t, []bool{true, false}, themes)

	assert.False(t, app.Modal.Get())
	app.OpenModal()
	assert.True(t, app.Modal.Get())
	app.CloseModal()
	assert.False(t, app.Modal.Get())

	assert.Equal(t, "01", app.Reciter.Get())
}
