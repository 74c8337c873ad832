package framework

// Fixture prepares the environment for each test case that uses it.
type Fixture interface {
	TestSetUp() error
	TestTearDown() error
}

// GroupFixture additionally has hooks that run once around a whole group of test cases.
type GroupFixture interface {
	Fixture
	GroupSetUp() error
	GroupTearDown() error
}

// RunGroup starts a subtest that calls f.GroupSetUp, runs action, and calls
// f.GroupTearDown even if action failed. If GroupSetUp fails, action is not run.
func (c *Context) RunGroup(name string, f GroupFixture, action func(*Context)) {
	c.Run(name, func(c *Context) {
		if err := f.GroupSetUp(); err != nil {
			c.Errorf("group set-up failed: %s", err)
			c.FailNow()
		}
		defer func() {
			if err := f.GroupTearDown(); err != nil {
				c.Errorf("group tear-down failed: %s", err)
			}
		}()
		action(c)
	})
}

// RunTest starts a subtest wrapped in f's per-test hooks. TestTearDown is called even if
// the test failed, as long as TestSetUp succeeded.
func (c *Context) RunTest(name string, f Fixture, action func(*Context)) {
	c.Run(name, func(c *Context) {
		if err := f.TestSetUp(); err != nil {
			c.Errorf("test set-up failed: %s", err)
			c.FailNow()
		}
		defer func() {
			if err := f.TestTearDown(); err != nil {
				c.Errorf("test tear-down failed: %s", err)
			}
		}()
		action(c)
	})
}
