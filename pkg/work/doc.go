// Package work defines the units of execution handled by the dispatcher.
//
// Every item implements Invoker. The set of variants is fixed:
//
//	┌──────────────────┬──────────────────────────┬──────────────────────────┐
//	│ Variant          │ Constructor              │ Extra capability         │
//	├──────────────────┼──────────────────────────┼──────────────────────────┤
//	│ plain            │ Func, Action             │ -                        │
//	│ payload-bound    │ NewValue                 │ DataCarrier              │
//	│ time-limited     │ NewValueLifetime         │ DataCarrier, Lifetimed   │
//	│ progress         │ WithProgress             │ forwards both            │
//	└──────────────────┴──────────────────────────┴──────────────────────────┘
//
// Constructors reject nil actions with an ArgumentRequiredError so that
// validation happens where the item is built, not when it runs.
//
// Items are immutable once built. A time-limited item with a non-positive
// lifetime gets DefaultLifetime.
package work
